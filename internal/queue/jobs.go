package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator"
	"github.com/rabbitmq/amqp091-go"

	"github.com/civicsignal/legisnet/pkg/legis"
)

// Detection methods an AnalysisJob may request.
const (
	MethodModularity  = "modularity"
	MethodEdgeDensity = "edge_density"
)

// dateLayout is the wire format for job date bounds.
const dateLayout = "2006-01-02"

var validate = validator.New()

// AnalysisJob asks the worker to run a complete coalition analysis for
// one congress and chamber. Method, Seed, and the date bounds are
// optional; zero values fall back to configured defaults.
type AnalysisJob struct {
	Congress  int           `json:"congress" validate:"required,min=1"`
	Chamber   legis.Chamber `json:"chamber" validate:"required,oneof=house senate"`
	Method    string        `json:"method,omitempty" validate:"omitempty,oneof=modularity edge_density"`
	Seed      int64         `json:"seed,omitempty"`
	StartDate string        `json:"start_date,omitempty"`
	EndDate   string        `json:"end_date,omitempty"`
}

// Validate checks the payload. Date bounds must be YYYY-MM-DD when set.
func (j AnalysisJob) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("invalid analysis job: %w", err)
	}
	if _, err := parseDate(j.StartDate); err != nil {
		return fmt.Errorf("invalid analysis job start_date: %w", err)
	}
	if _, err := parseDate(j.EndDate); err != nil {
		return fmt.Errorf("invalid analysis job end_date: %w", err)
	}
	return nil
}

// Window converts the job to the analysis window it describes. Call
// only after Validate; malformed dates degrade to open bounds here.
func (j AnalysisJob) Window() legis.Window {
	start, _ := parseDate(j.StartDate)
	end, _ := parseDate(j.EndDate)
	return legis.Window{Congress: j.Congress, Chamber: j.Chamber, Start: start, End: end}
}

// DetectorMethod returns the requested detection method, defaulting to
// modularity.
func (j AnalysisJob) DetectorMethod() string {
	if j.Method == "" {
		return MethodModularity
	}
	return j.Method
}

// ForecastJob asks the worker to score one bill's vote outcome.
type ForecastJob struct {
	BillID        string `json:"bill_id" validate:"required"`
	RankDefectors bool   `json:"rank_defectors,omitempty"`
}

// Validate checks the payload.
func (j ForecastJob) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("invalid forecast job: %w", err)
	}
	return nil
}

// DecodeAnalysisJob unmarshals and validates an analysis payload.
func DecodeAnalysisJob(data []byte) (AnalysisJob, error) {
	var job AnalysisJob
	if err := json.Unmarshal(data, &job); err != nil {
		return AnalysisJob{}, fmt.Errorf("unmarshal analysis job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return AnalysisJob{}, err
	}
	return job, nil
}

// DecodeForecastJob unmarshals and validates a forecast payload.
func DecodeForecastJob(data []byte) (ForecastJob, error) {
	var job ForecastJob
	if err := json.Unmarshal(data, &job); err != nil {
		return ForecastJob{}, fmt.Errorf("unmarshal forecast job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return ForecastJob{}, err
	}
	return job, nil
}

// EnqueueAnalysis validates and publishes an analysis job.
func EnqueueAnalysis(ch *amqp091.Channel, job AnalysisJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return PublishJob(ch, AnalysisQueue, data)
}

// EnqueueForecast validates and publishes a forecast job.
func EnqueueForecast(ch *amqp091.Channel, job ForecastJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return PublishJob(ch, ForecastQueue, data)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
