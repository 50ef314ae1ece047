package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// Delimiter separates the four fields of a ledger line.
const Delimiter = "###"

const ledgerFields = 4

// LedgerStore reads and appends line-oriented ledger files.
// Writes through one store are serialized.
type LedgerStore struct {
	mu     sync.Mutex
	logger *slog.Logger
}

// NewLedgerStore creates a LedgerStore.
func NewLedgerStore(logger *slog.Logger) *LedgerStore {
	return &LedgerStore{logger: logger}
}

// SerializeRecord renders r as id###duration###status###title.
func SerializeRecord(r domain.LedgerRecord) string {
	return strings.Join([]string{r.ID, strconv.Itoa(r.Duration), string(r.Status), r.Title}, Delimiter)
}

// ParseRecord parses one ledger line. The title is everything after the third delimiter.
func ParseRecord(line string) (domain.LedgerRecord, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\r\n"), Delimiter, ledgerFields)
	if len(parts) != ledgerFields {
		return domain.LedgerRecord{}, fmt.Errorf("%w: expected %d fields, got %d", errpkg.ErrMalformedRecord, ledgerFields, len(parts))
	}

	id := strings.TrimSpace(parts[0])
	if id == "" {
		return domain.LedgerRecord{}, fmt.Errorf("%w: empty id", errpkg.ErrMalformedRecord)
	}

	duration, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.LedgerRecord{}, fmt.Errorf("%w: duration %q is not an integer", errpkg.ErrMalformedRecord, parts[1])
	}

	status := domain.LedgerStatus(strings.TrimSpace(parts[2]))
	if !status.Valid() {
		return domain.LedgerRecord{}, fmt.Errorf("%w: unknown status %q", errpkg.ErrMalformedRecord, parts[2])
	}

	return domain.LedgerRecord{
		ID:       id,
		Duration: duration,
		Status:   status,
		Title:    parts[3],
	}, nil
}

// Append writes one record at the end of file, creating it if needed.
func (s *LedgerStore) Append(ctx context.Context, file string, record domain.LedgerRecord) error {
	return s.AppendAll(ctx, file, []domain.LedgerRecord{record})
}

// AppendAll writes records at the end of file in order.
func (s *LedgerStore) AppendAll(ctx context.Context, file string, records []domain.LedgerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		if _, err := w.WriteString(SerializeRecord(r) + "\n"); err != nil {
			return fmt.Errorf("write ledger record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}

	s.logger.Debug("ledger records appended", "file_path", file, "count", len(records))
	return nil
}

// ReadAll returns the records of file in file order.
// A missing file is ErrMissingLedger, a zero-length file ErrEmptyLedger,
// and the first bad line aborts the read with ErrMalformedRecord.
func (s *LedgerStore) ReadAll(ctx context.Context, file string) ([]domain.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errpkg.ErrMissingLedger, file)
		}
		return nil, fmt.Errorf("stat ledger: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", errpkg.ErrEmptyLedger, file)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	var records []domain.LedgerRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", file, lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	return records, nil
}

// TrimCompleted drops the processed prefix of pendingFile: every record up to
// and including the first one whose id equals the id of the last record in
// downloadedFile. Records after that marker are kept verbatim. When the marker
// does not occur, or nothing would remain, the file is left untouched.
// It returns the number of dropped records.
func (s *LedgerStore) TrimCompleted(ctx context.Context, pendingFile, downloadedFile string) (int, error) {
	pending, err := s.ReadAll(ctx, pendingFile)
	if err != nil {
		return 0, fmt.Errorf("read pending ledger: %w", err)
	}
	downloaded, err := s.ReadAll(ctx, downloadedFile)
	if err != nil {
		return 0, fmt.Errorf("read downloaded ledger: %w", err)
	}

	kept, found := trimPrefix(pending, downloaded[len(downloaded)-1].ID)
	if !found {
		s.logger.Info("last downloaded id not in pending ledger, nothing trimmed",
			"last_id", downloaded[len(downloaded)-1].ID,
			"pending_count", len(pending),
		)
		return 0, nil
	}
	if len(kept) == 0 {
		s.logger.Info("every pending record is processed, ledger left as is", "pending_count", len(pending))
		return 0, nil
	}

	dropped := len(pending) - len(kept)
	if err := s.rewrite(pendingFile, dropped); err != nil {
		return 0, err
	}

	s.logger.Info("pending ledger trimmed", "file_path", pendingFile, "dropped", dropped, "kept", len(kept))
	return dropped, nil
}

func trimPrefix(pending []domain.LedgerRecord, lastID string) ([]domain.LedgerRecord, bool) {
	for i, r := range pending {
		if r.ID == lastID {
			return pending[i+1:], true
		}
	}
	return pending, false
}

// rewrite replaces file with its bytes after the first skip non-blank lines.
func (s *LedgerStore) rewrite(file string, skip int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	tail := tailAfter(data, skip)
	if len(tail) > 0 && tail[len(tail)-1] != '\n' {
		tail = append(tail, '\n')
	}

	tempFile := file + ".tmp"
	if err := os.WriteFile(tempFile, tail, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, file); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// tailAfter returns data following the line that ends the skip-th non-blank line.
func tailAfter(data []byte, skip int) []byte {
	rest := data
	for skip > 0 && len(rest) > 0 {
		line := rest
		next := len(rest)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i]
			next = i + 1
		}
		if len(bytes.TrimSpace(line)) > 0 {
			skip--
		}
		rest = rest[next:]
	}
	return slices.Clone(rest)
}
