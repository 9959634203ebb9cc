package domain

// BatchState tracks where a batch is in its lifecycle.
type BatchState string

const (
	BatchPending         BatchState = "pending"
	BatchProcessing      BatchState = "processing"
	BatchCompleted       BatchState = "completed"
	BatchEmptyInputError BatchState = "empty_input_error"
	BatchNoOutputError   BatchState = "no_output_error"
)

// EventType is the kind of a streamed batch event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventWarning  EventType = "warning"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// BatchEvent is one message of the batch progress stream. Exactly one
// complete or error event terminates a stream.
type BatchEvent struct {
	Type             EventType `json:"type"`
	Barcode          string    `json:"barcode,omitempty"`
	Success          *bool     `json:"success,omitempty"`
	Message          string    `json:"message,omitempty"`
	Index            int       `json:"index,omitempty"`
	Total            int       `json:"total,omitempty"`
	Archive          string    `json:"archive,omitempty"` // base64 zip when archives are inlined
	ArchiveReference string    `json:"archiveReference,omitempty"`
	Succeeded        int       `json:"succeeded,omitempty"`
	Failed           int       `json:"failed,omitempty"`
}

// EventSink receives batch events in emission order.
type EventSink func(BatchEvent)

// BatchItemOutcome is the terminal state of one barcode in a batch.
// Failed outcomes may still carry a placeholder record for reporting.
type BatchItemOutcome struct {
	Barcode  string         `json:"barcode" yaml:"barcode"`
	Success  bool           `json:"success" yaml:"success"`
	NotFound bool           `json:"notFound,omitempty" yaml:"not_found,omitempty"` // every source answered not-found
	Record   *ProductRecord `json:"record,omitempty" yaml:"record,omitempty"`
	Image    *ImageAsset    `json:"image,omitempty" yaml:"-"`
	Reason   string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// BatchResult is what the orchestrator returns after the terminal event.
type BatchResult struct {
	State            BatchState
	Outcomes         []BatchItemOutcome
	Dropped          int
	Archive          []byte
	ArchiveReference string
}

// Succeeded counts outcomes that produced a found record.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// ProductResult is the single-item output: the record plus every image variant produced.
type ProductResult struct {
	Record   *ProductRecord
	Images   []*ImageAsset
	Warnings []string
	AIError  string // why enhancement failed, empty when it succeeded or was skipped
}

// FinalImage returns the last image variant, or nil.
func (r *ProductResult) FinalImage() *ImageAsset {
	if len(r.Images) == 0 {
		return nil
	}
	return r.Images[len(r.Images)-1]
}
