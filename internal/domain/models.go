package domain

// Stage is the phase a quiz session is in. Exactly one is active at a time.
type Stage int

const (
	StageIntro Stage = iota
	StageLoading
	StageQuiz
	StageError
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageIntro:
		return "intro"
	case StageLoading:
		return "loading"
	case StageQuiz:
		return "quiz"
	case StageError:
		return "error"
	case StageEnd:
		return "end"
	default:
		return "unknown"
	}
}

// RawQuestion is one item of the trivia service's results list, still entity-encoded.
type RawQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Question models a decoded MCQ question with exactly one correct option.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Snapshot is the read-only view of a session handed to the rendering layer.
type Snapshot struct {
	SessionID    string    `json:"sessionId"`
	Stage        Stage     `json:"stage"`
	Current      *Question `json:"current,omitempty"`
	CurrentIndex int       `json:"currentIndex"`
	Total        int       `json:"total"`
	Progress     float64   `json:"progress"`
	Feedback     string    `json:"feedback,omitempty"`
	Error        string    `json:"error,omitempty"`
	// Notice is a blocking message the user must see, set when a wrong answer restarts the quiz.
	Notice string `json:"notice,omitempty"`
	// AwaitingFeedback is true while a post-answer delay is running and answers are refused.
	AwaitingFeedback bool `json:"awaitingFeedback"`
}
