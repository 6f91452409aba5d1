// Package reminder emails enrolled students about assignments that are due soon and not yet submitted.
package reminder

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

const runTimeout = 4 * time.Minute

type (
	AssignmentQuerier interface {
		QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error)
	}

	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	SubmissionQuerier interface {
		QuerySubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error)
	}

	UserGetter interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	Deps struct {
		Assignments AssignmentQuerier
		Courses     CourseGetter
		Submissions SubmissionQuerier
		Users       UserGetter
		MailSvc     core.EmailService
		Logger      core.Logger
	}

	Scheduler struct {
		Deps
		schedule string
		window   time.Duration
		now      func() time.Time
		cron     *cron.Cron
	}

	mailData struct {
		StudentName     string
		AssignmentTitle string
		CourseTitle     string
		DueDate         time.Time
	}
)

func NewScheduler(conf *core.Config, deps Deps) *Scheduler {
	return &Scheduler{
		Deps:     deps,
		schedule: conf.Reminder.Schedule,
		window:   conf.Reminder.Window,
		now:      time.Now,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start schedules the reminder run and starts the cron scheduler in its own goroutine.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		sent, err := s.Run(ctx)
		if err != nil {
			s.Logger.Error("sending assignment reminders", err)
			return
		}
		s.Logger.Info("assignment reminders sent", map[string]interface{}{"count": sent})
	})
	if err != nil {
		return errors.Wrapf(err, "scheduling reminders %q", s.schedule)
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Run emails every enrolled student who has not submitted an assignment due within the window.
// It returns the number of reminders sent.
func (s *Scheduler) Run(ctx context.Context) (int, error) {
	now := s.now().UTC()
	asgs, err := s.Assignments.QueryAssignments(ctx, assignment.QueryFilter{DueFrom: now, DueTo: now.Add(s.window)})
	if err != nil {
		return 0, errors.Wrap(err, "querying due assignments")
	}

	var msgs []*core.EmailMessage
	for _, asg := range asgs {
		crs, err := s.Courses.GetCourseByID(ctx, asg.CourseID)
		if err != nil {
			if errors.Cause(err) == course.ErrNotFound {
				continue
			}
			return 0, err
		}
		subs, err := s.Submissions.QuerySubmissions(ctx, submission.QueryFilter{AssignmentID: asg.ID})
		if err != nil {
			return 0, errors.Wrap(err, "querying submissions")
		}
		submitted := make(map[string]bool, len(subs))
		for _, sub := range subs {
			if sub.Status != submission.StatusPending {
				submitted[sub.StudentID] = true
			}
		}

		for _, studentID := range crs.StudentIDs {
			if submitted[studentID] {
				continue
			}
			student, err := s.Users.GetUserByID(ctx, studentID)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					continue
				}
				return 0, err
			}
			if student.Email == "" || !student.IsActive {
				continue
			}
			msgs = append(msgs, &core.EmailMessage{
				To:           []mail.Address{{Name: student.Name, Address: student.Email}},
				Subject:      "Assignment due soon: " + asg.Title,
				TemplateName: "assignment_reminder",
				TemplateData: mailData{
					StudentName:     student.Name,
					AssignmentTitle: asg.Title,
					CourseTitle:     crs.Title,
					DueDate:         asg.DueDate,
				},
			})
		}
	}

	if len(msgs) > 0 {
		s.MailSvc.SendMessages(msgs...)
	}
	return len(msgs), nil
}
