package types

import "time"

// VerificationRecord is one completed verification attempt, persisted so
// status and proof lookups survive restarts. ArticleID is the natural key;
// a re-verification overwrites the previous row.
type VerificationRecord struct {
	ID        uint64 `gorm:"primaryKey"`
	ArticleID string `gorm:"size:36;uniqueIndex;not null"`

	Title     string `gorm:"size:512"`
	SourceURL string `gorm:"size:512"`
	Author    string `gorm:"size:255"`

	ArticleHash string `gorm:"size:66;index;not null"`

	FactCheckScore    float64
	SourceReliability float64
	ContentQuality    float64
	BiasDetection     float64
	// JSON-encoded []string / map[string]float64.
	DetectedEntities string `gorm:"type:text"`
	ConfidenceScores string `gorm:"type:text"`

	CredibilityScore float64
	Status           string `gorm:"size:16;index;not null"`

	TxHash         string `gorm:"size:66;index"`
	BlockNumber    uint64
	ProofState     string `gorm:"size:16"`
	ProofTimestamp time.Time

	VerifiedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
