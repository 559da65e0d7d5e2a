// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSpec refreshes every five minutes.
const DefaultSpec = "*/5 * * * *"

var knownMeters = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "meterwatch_known_meters",
	Help: "Number of meters with stored data, as of the last refresh.",
})

// MeterLister enumerates the meters known to the store.
type MeterLister interface {
	ListMeters(ctx context.Context) ([]string, error)
}

type Scheduler struct {
	lister MeterLister
	spec   string
	logger *logrus.Logger
	cron   *cron.Cron
}

func NewScheduler(lister MeterLister, spec string, logger *logrus.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		lister: lister,
		spec:   spec,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start refreshes once and then on every tick of the schedule.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refreshMeters); err != nil {
		return err
	}
	s.refreshMeters()
	s.cron.Start()
	return nil
}

// refreshMeters updates the known meters gauge from the store
func (s *Scheduler) refreshMeters() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	meters, err := s.lister.ListMeters(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to refresh known meters")
		return
	}
	knownMeters.Set(float64(len(meters)))
	s.logger.WithField("meters", len(meters)).Debug("Refreshed known meters")
}

// Stop the scheduler and wait for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
