package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/credits"
	"github.com/plateful-app/plateful/internal/pkg/imagegen"
)

// Service ties the credit gate, the provider adapters, the poller and the
// persistence pipeline together.
//
// Credits are deducted at successful submission, not at job completion: the
// provider charges per submission, so a job that later fails or times out
// does not refund the spend. The balance check before submission is advisory
// only; the guarded UPDATE in the ledger is the real gate.
type Service struct {
	credits     *credits.Service
	persister   *Persister
	settings    repository.SettingRepository
	providerFor func(model string) (imagegen.Provider, error)
}

// NewService builds the orchestration service.
func NewService(creditsSvc *credits.Service, persister *Persister, settings repository.SettingRepository) *Service {
	return &Service{
		credits:     creditsSvc,
		persister:   persister,
		settings:    settings,
		providerFor: imagegen.ForModel,
	}
}

// GenerateRequest is one image-generation attempt by a user.
type GenerateRequest struct {
	UserID         uint
	IsAdmin        bool
	Model          string
	Prompt         string
	NegativePrompt string
	Style          string
	Size           string
	Count          int
}

// GenerateResult reports the submitted task plus the ledger state after the
// deduction.
type GenerateResult struct {
	TaskID  string              `json:"task_id"`
	Model   string              `json:"model"`
	Status  imagegen.TaskStatus `json:"status"`
	Cost    int64               `json:"cost"`
	Balance int64               `json:"balance"`
}

// Generate validates provider configuration, gates on credits, submits the
// job and deducts the cost. Admins bypass the gate; a zero-cost audit entry
// is still written.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	// Configuration problems must surface before any ledger mutation.
	provider, err := s.providerFor(req.Model)
	if err != nil {
		return nil, err
	}

	cost := s.credits.GenerationCost()

	if !req.IsAdmin {
		// Advisory pre-check so an obviously broke user never reaches the
		// provider. The atomic spend below is the authoritative gate.
		balance, err := s.credits.GetOrCreate(req.UserID)
		if err != nil {
			return nil, err
		}
		if balance.Credits < cost {
			return nil, credits.ErrInsufficientCredits
		}
	}

	task, err := provider.Submit(ctx, imagegen.SubmitRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		Size:           req.Size,
		Count:          req.Count,
	})
	if err != nil {
		// Submission failed before the spend: ledger untouched.
		return nil, err
	}

	var balanceAfter int64
	if req.IsAdmin {
		if err := s.credits.RecordAdminUsage(req.UserID, "Image generation ("+req.Model+")"); err != nil {
			log.Errorf("[Generation] Audit entry for admin %d failed: %v", req.UserID, err)
		}
		if balance, err := s.credits.GetOrCreate(req.UserID); err == nil {
			balanceAfter = balance.Credits
		}
	} else {
		balance, err := s.credits.Spend(req.UserID, cost, models.TransactionReasonGeneration, "Image generation ("+req.Model+")")
		if err != nil {
			// Lost a concurrent-spend race after the provider accepted the
			// job. The submitted task is abandoned; nothing of ours depends
			// on it, so that is a non-destructive leak.
			return nil, err
		}
		balanceAfter = balance.Credits
	}

	if err := imagegen.SetTaskStatus(task); err != nil {
		log.Warnf("[Generation] Could not cache status for task %s: %v", task.TaskID, err)
	}

	if req.IsAdmin {
		cost = 0
	}
	return &GenerateResult{
		TaskID:  task.TaskID,
		Model:   req.Model,
		Status:  task.Status,
		Cost:    cost,
		Balance: balanceAfter,
	}, nil
}

// Status re-queries the provider for a task and refreshes the cached
// snapshot.
func (s *Service) Status(ctx context.Context, model, taskID string) (*imagegen.Task, error) {
	provider, err := s.providerFor(model)
	if err != nil {
		return nil, err
	}
	task, err := provider.CheckStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("status check for task %s: %w", taskID, err)
	}
	if cacheErr := imagegen.SetTaskStatus(task); cacheErr != nil {
		log.Warnf("[Generation] Could not cache status for task %s: %v", taskID, cacheErr)
	}
	return task, nil
}

// Await polls the task to a terminal state using the configured interval and
// attempt budget, then persists a succeeded result for the given recipe.
// A provider-side FAILED comes back as the task with a nil error; the caller
// distinguishes it from imagegen.ErrPollTimeout.
func (s *Service) Await(ctx context.Context, req GenerateRequest, recipeID uint, taskID string) (*imagegen.Task, *PersistResult, error) {
	provider, err := s.providerFor(req.Model)
	if err != nil {
		return nil, nil, err
	}

	interval := time.Duration(s.settings.GetInt(models.SettingPollIntervalSeconds, 3)) * time.Second
	maxAttempts := s.settings.GetInt(models.SettingPollMaxAttempts, 60)

	poller := imagegen.NewPoller(provider, interval, maxAttempts)
	task, err := poller.Wait(ctx, taskID)
	if task != nil {
		if cacheErr := imagegen.SetTaskStatus(task); cacheErr != nil {
			log.Warnf("[Generation] Could not cache status for task %s: %v", taskID, cacheErr)
		}
	}
	if err != nil {
		return task, nil, err
	}

	if task.Status != imagegen.StatusSucceeded {
		return task, nil, nil
	}
	if task.ResultURL == "" {
		return task, nil, fmt.Errorf("task %s succeeded without a result URL", taskID)
	}

	persisted, err := s.persister.Persist(ctx, task.ResultURL, req.UserID, recipeID, req.Model)
	if err != nil {
		return task, nil, err
	}
	return task, persisted, nil
}

// Persist re-hosts an already-known result URL for a recipe.
func (s *Service) Persist(ctx context.Context, sourceURL string, userID, recipeID uint, imageModel string) (*PersistResult, error) {
	return s.persister.Persist(ctx, sourceURL, userID, recipeID, imageModel)
}
