// Package evalrunner runs portfolio evaluations in the background: claim an
// evaluation job, rebuild the agenda snapshot, score every client, persist.
package evalrunner

import (
	"context"
	"time"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/observability/logger"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/agenda"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/comms"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/risk"
)

// Processor performs the evaluation work for a job's evaluation id.
type Processor interface {
	Process(ctx context.Context, evaluationID string) error
}

// PortfolioProcessor is the real pipeline: match, tag, score, persist.
type PortfolioProcessor struct {
	Tables ports.TableRepository
	Evals  ports.EvaluationRepository
	Comms  ports.CommRepository
	Jobs   ports.JobRepository
}

func (p PortfolioProcessor) Process(ctx context.Context, evaluationID string) error {
	log := logger.Named("evalrunner")

	hoy, err := p.Evals.ReferenceDate(ctx, evaluationID)
	if err != nil {
		return err
	}
	clientes, err := p.Tables.Clients(ctx)
	if err != nil {
		return err
	}
	reglas, err := p.Tables.DeadlineRules(ctx)
	if err != nil {
		return err
	}

	entries := agenda.Match(clientes, reglas, hoy)
	for i := range entries {
		if entries[i].DiasRestantes < 0 {
			entries[i].Estado = domain.EstadoVencido
		} else {
			entries[i].Estado = domain.EstadoOK
		}
	}
	if err := p.Evals.SaveAgenda(ctx, evaluationID, entries); err != nil {
		return err
	}
	if err := p.Jobs.UpdateProgress(ctx, evaluationID, 0.5); err != nil {
		return err
	}
	log.Debug("agenda snapshot saved",
		logger.Evaluation(evaluationID), logger.Count(len(entries)))

	porCuit := make(map[string][]domain.AgendaEntry)
	for _, e := range entries {
		porCuit[e.CUIT] = append(porCuit[e.CUIT], e)
	}

	// One assessment per client, monotributistas included: their agenda is
	// empty but debts and communications still score.
	total := len(clientes)
	for i, cli := range clientes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		cuit, nombre := cli.Get("cuit"), cli.Get("razon_social")
		if cuit == "" || nombre == "" {
			continue
		}

		deudas, err := p.Tables.DebtsForClient(ctx, cuit)
		if err != nil {
			return err
		}
		historia, err := p.Comms.HistoryForClient(ctx, cuit)
		if err != nil {
			return err
		}

		a := risk.Assess(porCuit[cuit], risk.FilterActive(deudas), comms.Rows(historia), hoy)
		if err := p.Evals.SaveAssessment(ctx, evaluationID, cuit, nombre, a); err != nil {
			return err
		}
		log.Debug("client assessed",
			logger.Evaluation(evaluationID), logger.CUIT(cuit), logger.String("nivel", a.Nivel))
		if err := p.Jobs.UpdateProgress(ctx, evaluationID, 0.5+0.5*float64(i+1)/float64(total)); err != nil {
			return err
		}
	}
	return nil
}

// Run starts worker goroutines that claim jobs and process them.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration) {
	if concurrency < 1 {
		return
	}
	log := logger.Named("evalrunner")
	jobsCh := make(chan ports.EvalJob, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(jobsCh)
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						log.Warn("job claim error", logger.Err(err))
						break
					}
					if !found {
						break
					}
					jobsCh <- job
				}
			}
		}
	}()

	// workers
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				if err := processor.Process(ctx, job.EvaluationID); err != nil {
					_ = repo.MarkFailed(ctx, job.ID, err.Error())
					log.Error("evaluation failed",
						logger.Evaluation(job.EvaluationID), logger.Err(err))
					continue
				}
				if err := repo.MarkCompleted(ctx, job.ID); err != nil {
					log.Error("complete error", logger.Evaluation(job.EvaluationID), logger.Err(err))
				}
			}
		}(i)
	}
}

// ProcessInline starts and processes a specific evaluation synchronously
// using the same processor logic as the background workers. It marks the job
// as running, calls processor.Process, and completes or fails.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, evaluationID string) error {
	jobID, err := repo.StartJobForEvaluation(ctx, evaluationID)
	if err != nil {
		return err
	}
	if err := processor.Process(ctx, evaluationID); err != nil {
		_ = repo.MarkFailed(ctx, jobID, err.Error())
		return err
	}
	return repo.MarkCompleted(ctx, jobID)
}
