package resolver

import "strings"

// Signals are the metadata the music heuristic looks at.
// Duration is in seconds, 0 when unknown.
type Signals struct {
	Title       string
	Author      string
	Description string
	Duration    int
}

const musicThreshold = 2

type cue struct {
	text   string
	weight int
}

var (
	titleCues = []cue{
		{"official audio", 3},
		{"official music video", 2},
		{"official video", 1},
		{"lyric video", 2},
		{"lyrics", 1},
		{"(audio)", 2},
		{"visualizer", 1},
		{"remix", 1},
		{"feat.", 1},
		{"ft.", 1},
		{"podcast", -3},
		{"full episode", -3},
		{"interview", -2},
		{"trailer", -3},
		{"reaction", -2},
		{"tutorial", -2},
		{"how to", -2},
		{"gameplay", -2},
		{"vlog", -2},
		{"review", -1},
		{"unboxing", -2},
	}

	descriptionCues = []cue{
		{"provided to youtube by", 3},
		{"℗", 2},
		{"auto-generated by youtube", 2},
		{"stream/download", 1},
		{"podcast", -2},
		{"episode", -1},
	}
)

// Score weighs positive music cues against negative ones.
func Score(s Signals) int {
	title := strings.ToLower(s.Title)
	author := strings.ToLower(s.Author)
	desc := strings.ToLower(s.Description)

	score := 0
	for _, c := range titleCues {
		if strings.Contains(title, c.text) {
			score += c.weight
		}
	}
	for _, c := range descriptionCues {
		if strings.Contains(desc, c.text) {
			score += c.weight
		}
	}

	switch {
	case strings.HasSuffix(author, " - topic"):
		score += 3
	case strings.Contains(author, "vevo"):
		score += 3
	case strings.Contains(author, "records") || strings.Contains(author, "music"):
		score++
	}
	if strings.Contains(author, "podcast") {
		score -= 3
	}

	if strings.Contains(s.Title, " - ") {
		score++
	}

	switch {
	case s.Duration == 0:
	case s.Duration > 20*60:
		score -= 2
	case s.Duration < 45:
		score--
	}

	return score
}

// IsMusic is a best-effort guess whether the signals describe a song.
func IsMusic(s Signals) bool {
	return Score(s) >= musicThreshold
}
