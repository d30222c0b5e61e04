package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

// fitted is what gets persisted between processes.
type fitted struct {
	Tree      *Tree     `json:"tree"`
	Encoders  Encoders  `json:"encoders"`
	Accuracy  float64   `json:"accuracy"`
	TrainedAt time.Time `json:"trained_at"`
}

// Classifier maps a user profile to a risk category. The tree is loaded from
// the store, or trained and saved, the first time it is needed.
type Classifier struct {
	store  ModelStore
	logger *zap.Logger

	mu    sync.Mutex
	model atomic.Pointer[fitted]
}

func NewClassifier(store ModelStore, logger *zap.Logger) *Classifier {
	return &Classifier{
		store:  store,
		logger: logger.With(zap.String("caller", "RiskClassifier")),
	}
}

// Warm loads or trains the model ahead of the first request.
func (c *Classifier) Warm(ctx context.Context) {
	c.ensure(ctx)
}

// Classify never fails: malformed fields fall back to defaults and a missing
// model is trained on the spot.
func (c *Classifier) Classify(ctx context.Context, profile entities.UserProfile) entities.RiskCategory {
	m := c.ensure(ctx)
	logger := c.logger.With(zap.String("method", "Classify"))
	if m == nil {
		logger.Warn("no risk model, using the middle category")
		return entities.Balanced
	}

	age, fallback := profile.AgeValue()
	if fallback {
		logger.Debug((&errs.CoercionFallback{Field: "age", Raw: profile.Age, Used: age}).Error())
	}
	income, fallback := profile.IncomeLevel()
	if fallback {
		logger.Debug((&errs.CoercionFallback{Field: "monthlyIncome", Raw: profile.MonthlyIncome, Used: income}).Error())
	}

	goal, known := m.Encoders.Goal.Encode(profile.Goal())
	if !known {
		logger.Debug("unseen investment goal", zap.String("value", profile.InvestmentGoal))
	}
	horizon, known := m.Encoders.Horizon.Encode(profile.Horizon())
	if !known {
		logger.Debug("unseen time horizon", zap.String("value", profile.TimeHorizon))
	}
	experience, known := m.Encoders.Experience.Encode(profile.Experience())
	if !known {
		logger.Debug("unseen investment experience", zap.String("value", profile.ExistingInvestments))
	}

	row := make([]float64, numFeatures)
	row[featAge] = age
	row[featIncome] = float64(income)
	row[featGoal] = float64(goal)
	row[featHorizon] = float64(horizon)
	row[featExperience] = float64(experience)

	cat := entities.RiskCategory(m.Tree.Predict(row))
	if !cat.Valid() {
		return entities.Balanced
	}
	return cat
}

// Profile classifies and attaches the display score and explanation.
func (c *Classifier) Profile(ctx context.Context, profile entities.UserProfile) entities.RiskProfileResp {
	cat := c.Classify(ctx, profile)
	return entities.RiskProfileResp{
		RiskCategory: cat,
		RiskScore:    cat.DisplayScore(),
		Explanation:  cat.Explanation(),
	}
}

// Train fits a fresh tree, persists it and swaps it in. It returns the
// accuracy measured on the held-out share of the synthetic data.
func (c *Classifier) Train(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := train()
	if err != nil {
		return 0, err
	}
	c.model.Store(m)
	if err := c.save(ctx, m); err != nil {
		return m.Accuracy, err
	}
	return m.Accuracy, nil
}

func (c *Classifier) ensure(ctx context.Context) *fitted {
	if m := c.model.Load(); m != nil {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m := c.model.Load(); m != nil {
		return m
	}

	m, err := c.load(ctx)
	switch {
	case err == nil:
		c.logger.Info("risk model loaded", zap.Time("trained_at", m.TrainedAt))
		c.model.Store(m)
		return m
	case errors.Is(err, errs.ErrNotFound):
		c.logger.Info("no stored risk model, training a new one")
	default:
		c.logger.Warn("stored risk model unusable, retraining", zap.Error(err))
	}

	m, err = train()
	if err != nil {
		c.logger.Error(fmt.Errorf("train risk model: %w", err).Error())
		return nil
	}
	if err := c.save(ctx, m); err != nil {
		c.logger.Warn("risk model not persisted", zap.Error(err))
	}

	c.model.Store(m)
	return m
}

func (c *Classifier) load(ctx context.Context) (*fitted, error) {
	if c.store == nil {
		return nil, errs.ErrNotFound
	}
	payload, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	var m fitted
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode risk model: %w", err)
	}
	if m.Tree == nil || len(m.Tree.Nodes) == 0 {
		return nil, fmt.Errorf("decode risk model: no tree nodes")
	}
	return &m, nil
}

func (c *Classifier) save(ctx context.Context, m *fitted) error {
	if c.store == nil {
		return nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode risk model: %w", err)
	}
	if err := c.store.Save(ctx, payload); err != nil {
		return fmt.Errorf("persist risk model: %w", err)
	}
	c.logger.Info("risk model persisted", zap.Float64("accuracy", m.Accuracy))
	return nil
}

func train() (*fitted, error) {
	rng := rand.New(rand.NewSource(Seed))
	enc := newEncoders()

	ds := syntheticDataset(rng, Samples, enc)
	trainSet, testSet := ds.split(rng, TestShare)

	tree := NewTree(TreeDepth)
	if err := tree.Fit(trainSet.x, trainSet.y); err != nil {
		return nil, err
	}

	return &fitted{
		Tree:      tree,
		Encoders:  enc,
		Accuracy:  tree.Score(testSet.x, testSet.y),
		TrainedAt: time.Now().UTC(),
	}, nil
}
