// Package export serializes analysis reports to JSON documents and
// delivers them to a destination sink: a local directory for ad-hoc CLI
// runs or an S3 bucket for worker runs. File names carry the congress
// and chamber (or bill ID) so repeated runs overwrite their own output.
package export

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
)

// uploadParallelMax caps concurrent sink writes in WriteAll.
const uploadParallelMax = 4

// Sink receives named JSON documents. Implementations must be safe for
// concurrent Write calls.
type Sink interface {
	Write(ctx context.Context, name string, v any) error
	Close() error
}

// Document pairs an export file name with the report it carries.
type Document struct {
	Name string
	Body any
}

// WriteAll writes every document to the sink concurrently. The first
// failure cancels the remaining writes and is returned.
func WriteAll(ctx context.Context, sink Sink, docs []Document) error {
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(uploadParallelMax)
	for _, doc := range docs {
		eg.Go(func() error {
			if err := sink.Write(ectx, doc.Name, doc.Body); err != nil {
				return fmt.Errorf("write %s: %w", doc.Name, err)
			}
			logger.Debug("[Export] Wrote document", "name", doc.Name)
			return nil
		})
	}
	return eg.Wait()
}

// CoalitionFile names the coalition report for one chamber run.
func CoalitionFile(congress int, chamber legis.Chamber) string {
	return fmt.Sprintf("coalition_analysis_%d_%s.json", congress, chamber)
}

// DeviationsFile names the party-deviation report for one chamber run.
func DeviationsFile(congress int, chamber legis.Chamber) string {
	return fmt.Sprintf("party_deviations_%d_%s.json", congress, chamber)
}

// HotspotsFile names the bipartisan-bill report for one chamber run.
func HotspotsFile(congress int, chamber legis.Chamber) string {
	return fmt.Sprintf("bipartisan_bills_%d_%s.json", congress, chamber)
}

// ForecastFile names the vote forecast for one bill.
func ForecastFile(billID string) string {
	return fmt.Sprintf("vote_forecast_%s.json", billID)
}

// CompleteFile names the combined analysis document for one chamber run.
func CompleteFile(congress int, chamber legis.Chamber) string {
	return fmt.Sprintf("complete_analysis_%d_%s.json", congress, chamber)
}
