package types

import "time"

// Block is a top-level tracked interval. At most one block is open (End is
// nil) at any time; End and Duration are owned by the engine.
type Block struct {
	BlockID     string     `json:"block_id"`
	Text        string     `json:"text"`
	Project     *string    `json:"project"`
	ProjectName *string    `json:"project_name"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end"`
	Duration    int64      `json:"duration"` // seconds, 0 while open
	Tags        []string   `json:"tags"`
}

// IsOpen reports whether the block has not been closed yet.
func (b *Block) IsOpen() bool {
	return b.End == nil
}

// BlockInput is the caller-supplied payload for block writes. On insert only
// Text, Project, Start and TagIDs are honored; End is engine-derived.
type BlockInput struct {
	BlockID string     `json:"block_id,omitempty"`
	Text    string     `json:"text"`
	Project *string    `json:"project"`
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end"`
	TagIDs  []string   `json:"tag_ids"`
}

// ValidateInsert checks the fields required to open a new block.
func (in *BlockInput) ValidateInsert() error {
	if in.Start.IsZero() {
		return Invalid("block start is required")
	}
	return nil
}

// ValidateUpdate checks a full-replacement update addressed to id. A body id
// that disagrees with the addressed id is a bad request.
func (in *BlockInput) ValidateUpdate(id string) error {
	if id == "" {
		return Invalid("block id is required")
	}
	if in.BlockID != "" && in.BlockID != id {
		return NewError(CodeBadRequest, "block_id in the body does not match the addressed block")
	}
	if in.Start.IsZero() {
		return Invalid("block start is required")
	}
	if in.End != nil && in.End.Before(in.Start) {
		return Invalid("block end must not precede its start")
	}
	return nil
}

// DurationSeconds returns the whole seconds between start and end, or 0 when
// end is nil.
func DurationSeconds(start time.Time, end *time.Time) int64 {
	if end == nil {
		return 0
	}
	return int64(end.Sub(start) / time.Second)
}
