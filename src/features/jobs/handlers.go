package jobs

import (
	"log/slog"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the jobs feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the jobs feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type jobResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func toJobResponse(job *Job) jobResponse {
	return jobResponse{
		ID:        job.ID,
		Type:      job.Type,
		Name:      job.Name,
		Status:    job.Status,
		Progress:  job.Progress,
		Message:   job.Message,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: job.UpdatedAt.Format("2006-01-02 15:04:05"),
		Metadata:  job.Metadata,
	}
}

// GetJobs is the handler for listing all jobs, newest first.
func (h *Handler) GetJobs(c *fiber.Ctx) error {
	jobs := h.service.GetJobs()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	responses := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toJobResponse(job))
	}
	return c.JSON(responses)
}

// GetJob is the handler for getting a single job.
func (h *Handler) GetJob(c *fiber.Ctx) error {
	job, ok := h.service.GetJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(toJobResponse(job))
}

// CancelJob is the handler for cancelling a running job.
func (h *Handler) CancelJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if err := h.service.CancelJob(jobID); err != nil {
		slog.Error("Failed to cancel job", "job_id", jobID, "error", err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Info("Job cancelled", "job_id", jobID)
	return c.JSON(fiber.Map{"status": "cancelled"})
}

// CleanupJobs is the handler for purging finished jobs older than a day.
func (h *Handler) CleanupJobs(c *fiber.Ctx) error {
	h.service.CleanupOldJobs(24 * time.Hour)
	return c.JSON(fiber.Map{"status": "cleanup completed"})
}
