package types

import "time"

// Transcription is one persisted speech-to-text result, owned by the
// user who uploaded the recording.
type Transcription struct {
	// ID is the unique identifier of the transcription.
	ID int `json:"id" db:"id"`

	// Filename is the name of the file as originally uploaded.
	Filename string `json:"filename" db:"filename"`

	// Text is the transcript produced by the recognition service.
	Text string `json:"text" db:"text"`

	// OwnerUsername references the username of the account that owns
	// this transcription. Rows are only ever listed and deleted through
	// their owner.
	OwnerUsername string `json:"owner_username" db:"owner_username"`

	// CreatedAt is the UTC timestamp at which the transcription was stored.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChoiceQuestion is a multiple-choice review question derived from a
// transcript. Answer is the index of the correct entry in Options.
type ChoiceQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}
