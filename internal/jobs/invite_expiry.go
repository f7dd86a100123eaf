package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// InviteExpirer declines pending invites whose event already started
type InviteExpirer interface {
	ExpireStartedInvites(ctx context.Context) (int, error)
}

// InviteExpiry periodically declines invites nobody answered before the
// event began, so they stop showing up as actionable.
type InviteExpiry struct {
	expirer  InviteExpirer
	interval time.Duration
	timeout  time.Duration
	id       uuid.UUID

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// NewInviteExpiry creates a new invite expiry job
func NewInviteExpiry(expirer InviteExpirer, interval time.Duration) *InviteExpiry {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &InviteExpiry{
		expirer:  expirer,
		interval: interval,
		timeout:  time.Minute,
		id:       uuid.New(),
	}
}

// Start schedules the job. The first run happens immediately; runs never
// overlap.
func (j *InviteExpiry) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.scheduler != nil {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.tick),
		gocron.WithName("invite-expiry"),
		gocron.WithIdentifier(j.id),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.Join(err, sched.Shutdown())
	}

	sched.Start()
	j.scheduler = sched
	log.Printf("Invite expiry started (interval: %v)", j.interval)
	return nil
}

// Stop shuts the scheduler down and waits for a running pass to finish
func (j *InviteExpiry) Stop() {
	j.mu.Lock()
	sched := j.scheduler
	j.scheduler = nil
	j.mu.Unlock()

	if sched == nil {
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("Invite expiry shutdown: %v", err)
	}
	log.Println("Invite expiry stopped")
}

// IsRunning returns whether the job is scheduled
func (j *InviteExpiry) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scheduler != nil
}

func (j *InviteExpiry) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.RunOnce(ctx)
	if err != nil {
		log.Printf("Error expiring invites: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Expired %d stale invites", n)
	}
}

// RunOnce expires stale invites once (for testing or manual trigger)
func (j *InviteExpiry) RunOnce(ctx context.Context) (int, error) {
	return j.expirer.ExpireStartedInvites(ctx)
}
