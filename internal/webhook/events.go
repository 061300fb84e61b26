// ABOUTME: Webhook event names and outbound payload shapes.
// ABOUTME: Field order in these structs fixes the canonical JSON the signature covers.

package webhook

import "time"

// Event names carried in WebhookConfig.Event and in the payload "event" field.
const (
	EventApprovalRequired = "approval_required"
	EventArticlePublished = "article_published"
	EventArticleRejected  = "article_rejected"
)

// ArticleRef identifies the article an event concerns.
type ArticleRef struct {
	ID       int64  `json:"id"`
	Topic    string `json:"topic"`
	Headline string `json:"headline"`
	Status   string `json:"status"`
}

// UserRef identifies the person who triggered an event.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CallbackBody documents the body the receiver should POST back.
type CallbackBody struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes"`
}

// Callback tells the receiver how to resolve the approval. Receivers must
// verify the signature header before trusting the embedded URL.
type Callback struct {
	ApproveURL     string       `json:"approve_url"`
	Method         string       `json:"method"`
	PayloadApprove CallbackBody `json:"payload_approve"`
	PayloadReject  CallbackBody `json:"payload_reject"`
}

// ApprovalRequiredPayload is the body of an approval_required delivery.
type ApprovalRequiredPayload struct {
	Event       string     `json:"event"`
	Timestamp   time.Time  `json:"timestamp"`
	Article     ArticleRef `json:"article"`
	Submitter   UserRef    `json:"submitter"`
	EditorNotes *string    `json:"editor_notes"`
	Callback    Callback   `json:"callback"`
}

// ResolutionPayload is the body of article_published and article_rejected
// deliveries.
type ResolutionPayload struct {
	Event       string     `json:"event"`
	Timestamp   time.Time  `json:"timestamp"`
	Article     ArticleRef `json:"article"`
	Reviewer    UserRef    `json:"reviewer"`
	ReviewNotes string     `json:"review_notes,omitempty"`
}
