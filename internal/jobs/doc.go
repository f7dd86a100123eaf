// Package jobs runs Rally's background work on a gocron scheduler.
//
// InviteExpiry declines pending invites for events that have already
// started. It is started from main when JOBS_INVITE_EXPIRY_ENABLED is set:
//
//	job := jobs.NewInviteExpiry(inviteService, cfg.Jobs.InviteExpiryInterval)
//	if err := job.Start(); err != nil { ... }
//	defer job.Stop()
package jobs
