package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/entra"
)

func (s *Synchronizer) sources(ctx context.Context) (users []*entra.User, err error) {
	if users, err = s.directory.Employees(ctx); err != nil {
		err = fmt.Errorf("fetch employees: %w", err)
		return
	}
	if s.options.IncludeStudents {
		var students []*entra.User
		if students, err = s.directory.Students(ctx); err != nil {
			err = fmt.Errorf("fetch students: %w", err)
			return
		}
		users = append(users, students...)
	}
	return
}

// LoadState fetches the users and the company catalog from Pureservice.
func (s *Synchronizer) LoadState(ctx context.Context, log logrus.FieldLogger) (state *RunState, err error) {
	var catalog = &Catalog{}
	if catalog.Companies, err = s.services.Companies.GetCompanies(ctx); err != nil {
		err = fmt.Errorf("fetch companies: %w", err)
		return
	}
	if catalog.Departments, err = s.services.Companies.GetDepartments(ctx); err != nil {
		err = fmt.Errorf("fetch departments: %w", err)
		return
	}
	if catalog.Locations, err = s.services.Companies.GetLocations(ctx); err != nil {
		err = fmt.Errorf("fetch locations: %w", err)
		return
	}
	var users, er1 = s.services.Users.GetUsers(ctx)
	if er1 != nil {
		err = fmt.Errorf("fetch users: %w", er1)
		return
	}
	state, err = NewRunState(users, catalog, log)
	return
}

// Synchronize runs one pass over every Entra user. The run stops before the next
// user once MaxRunDuration has passed or ctx is done, and returns the tally so far.
func (s *Synchronizer) Synchronize(ctx context.Context) (result *Result, err error) {
	var started = s.now()
	result = NewResult(uuid.NewString(), started)
	var log = s.log.WithField("run", result.RunID)
	defer func() {
		result.Duration = s.now().Sub(started)
		s.metrics.Count("sync_run", "Synchronization runs", err == nil)
	}()

	var sources []*entra.User
	if sources, err = s.sources(ctx); err != nil {
		log.WithError(err).Error("Synchronization aborted")
		return
	}
	var state *RunState
	if state, err = s.LoadState(ctx, log); err != nil {
		log.WithError(err).Error("Synchronization aborted")
		return
	}
	log.WithField("sourceUsers", len(sources)).Info("Synchronization started")

	var deadline = started.Add(s.options.MaxRunDuration)
	for i, source := range sources {
		if ctx.Err() != nil {
			log.WithField("remaining", len(sources)-i).Warn("Synchronization cancelled")
			result.Aborted = true
			break
		}
		if s.options.MaxRunDuration > 0 && !s.now().Before(deadline) {
			log.WithField("remaining", len(sources)-i).Warn("Synchronization ran out of time")
			result.Aborted = true
			break
		}
		result.Apply(s.SyncUser(ctx, state, source))
	}

	result.Duration = s.now().Sub(started)
	log.WithFields(result.Fields()).Info("Synchronization finished")
	return
}
