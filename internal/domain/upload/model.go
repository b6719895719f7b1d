package upload

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type Kind string

const (
	KindPrescription Kind = "PRESCRIPTION"
	KindLabReport    Kind = "LAB_REPORT"
	KindOther        Kind = "OTHER"
)

// ParseKind accepts any casing; an empty string means KindPrescription.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case "":
		return KindPrescription, true
	case KindPrescription, KindLabReport, KindOther:
		return k, true
	}
	return "", false
}

type ReadingStatus string

const (
	ReadingCompleted ReadingStatus = "COMPLETED"
	ReadingFailed    ReadingStatus = "FAILED"
)

// Upload is a stored document. It is never modified after creation.
type Upload struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	FileName    string    `db:"filename" json:"filename"`
	BlobRef     string    `db:"blob_ref" json:"-"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	SHA256      string    `db:"sha256" json:"sha256"`
	Kind        Kind      `db:"kind" json:"kind"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Reading is one attempt by the model to explain an upload.
type Reading struct {
	ID          string        `db:"id" json:"id"`
	UploadID    string        `db:"upload_id" json:"-"`
	Status      ReadingStatus `db:"status" json:"status"`
	Explanation *string       `db:"explanation" json:"explanation,omitempty"`
	Failure     *string       `db:"failure" json:"failure,omitempty"`
	Model       *string       `db:"model" json:"model,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// View is an upload as returned to its owner, with the current reading.
type View struct {
	*Upload
	SizeHuman string   `json:"size_human"`
	Reading   *Reading `json:"reading,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func newView(u *Upload, r *Reading) *View {
	return &View{
		Upload:    u,
		SizeHuman: humanize.Bytes(uint64(u.SizeBytes)),
		Reading:   r,
	}
}
