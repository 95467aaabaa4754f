package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chainpress/newsverify/src/api/types"
	"github.com/chainpress/newsverify/src/verification"
)

// Store persists verification results in MySQL.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveResult upserts the attempt outcome keyed by article id.
func (s *Store) SaveResult(ctx context.Context, article *verification.Article, res *verification.Result, articleHash string) error {
	entities, err := json.Marshal(res.Analysis.DetectedEntities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	confidences, err := json.Marshal(res.Analysis.ConfidenceScores)
	if err != nil {
		return fmt.Errorf("encode confidences: %w", err)
	}

	row := types.VerificationRecord{
		ArticleID:         res.ArticleID.String(),
		Title:             article.Title,
		SourceURL:         article.SourceURL,
		Author:            article.Author,
		ArticleHash:       articleHash,
		FactCheckScore:    res.Analysis.FactCheckScore,
		SourceReliability: res.Analysis.SourceReliability,
		ContentQuality:    res.Analysis.ContentQuality,
		BiasDetection:     res.Analysis.BiasDetection,
		DetectedEntities:  string(entities),
		ConfidenceScores:  string(confidences),
		CredibilityScore:  res.CredibilityScore,
		Status:            string(res.Status),
		TxHash:            res.Proof.TxHash,
		BlockNumber:       res.Proof.BlockNumber,
		ProofState:        res.Proof.State,
		ProofTimestamp:    res.Proof.Timestamp,
		VerifiedAt:        res.VerifiedAt,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "article_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

// Result returns the latest known result for the article id.
func (s *Store) Result(ctx context.Context, articleID string) (*verification.Result, error) {
	var row types.VerificationRecord
	err := s.db.WithContext(ctx).First(&row, "article_id = ?", articleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: article %s", verification.ErrNotFound, articleID)
	}
	if err != nil {
		return nil, err
	}
	return rowToResult(&row)
}

// Proof returns the ledger proof for the article id.
func (s *Store) Proof(ctx context.Context, articleID string) (*verification.ProofRecord, error) {
	res, err := s.Result(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if res.Proof.TxHash == "" {
		return nil, fmt.Errorf("%w: no proof for article %s", verification.ErrNotFound, articleID)
	}
	return &res.Proof, nil
}

func rowToResult(row *types.VerificationRecord) (*verification.Result, error) {
	id, err := uuid.Parse(row.ArticleID)
	if err != nil {
		return nil, fmt.Errorf("corrupt article id %q: %w", row.ArticleID, err)
	}

	var entities []string
	if row.DetectedEntities != "" {
		if err := json.Unmarshal([]byte(row.DetectedEntities), &entities); err != nil {
			return nil, fmt.Errorf("decode entities: %w", err)
		}
	}
	confidences := map[string]float64{}
	if row.ConfidenceScores != "" {
		if err := json.Unmarshal([]byte(row.ConfidenceScores), &confidences); err != nil {
			return nil, fmt.Errorf("decode confidences: %w", err)
		}
	}

	return &verification.Result{
		ArticleID:        id,
		CredibilityScore: row.CredibilityScore,
		Analysis: verification.AIAnalysis{
			FactCheckScore:    row.FactCheckScore,
			SourceReliability: row.SourceReliability,
			ContentQuality:    row.ContentQuality,
			BiasDetection:     row.BiasDetection,
			DetectedEntities:  entities,
			ConfidenceScores:  confidences,
		},
		Proof: verification.ProofRecord{
			TxHash:      row.TxHash,
			BlockNumber: row.BlockNumber,
			Timestamp:   row.ProofTimestamp,
			State:       row.ProofState,
		},
		Status:     verification.Status(row.Status),
		VerifiedAt: row.VerifiedAt,
	}, nil
}
