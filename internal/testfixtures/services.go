package testfixtures

import (
	"time"

	"github.com/example/dance-group-manager/internal/application"
	"github.com/example/dance-group-manager/internal/attendance"
	"github.com/example/dance-group-manager/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// GroupServiceDeps captures dependencies for constructing a group service.
type GroupServiceDeps struct {
	Groups      application.GroupRepository
	IDGenerator func() string
	Now         func() time.Time
}

// NewGroupService builds a group service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewGroupService(deps GroupServiceDeps) *application.GroupService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewGroupService(deps.Groups, idGen, now)
}

// ScheduleServiceDeps captures dependencies for constructing a schedule service.
type ScheduleServiceDeps struct {
	Schedules   application.ScheduleRepository
	Recurrences application.RecurrenceRepository
	Hierarchy   application.HierarchyProvider
	Engine      *recurrence.Engine
	IDGenerator func() string
	Now         func() time.Time
}

// NewScheduleService builds a schedule service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewScheduleService(deps ScheduleServiceDeps) *application.ScheduleService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewScheduleService(
		deps.Schedules,
		deps.Recurrences,
		deps.Hierarchy,
		deps.Engine,
		idGen,
		now,
	)
}

// AttendanceServiceDeps captures dependencies for constructing an attendance
// service.
type AttendanceServiceDeps struct {
	Records     application.AttendanceRepository
	Schedules   application.ScheduleReader
	Hierarchy   application.HierarchyProvider
	Config      attendance.Config
	IDGenerator func() string
	Now         func() time.Time
}

// NewAttendanceService builds an attendance service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewAttendanceService(deps AttendanceServiceDeps) *application.AttendanceService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAttendanceService(
		deps.Records,
		deps.Schedules,
		deps.Hierarchy,
		deps.Config,
		idGen,
		now,
	)
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Users        application.UserRepository
	HashPassword application.PasswordHasher
	IDGenerator  func() string
	Now          func() time.Time
}

// NewUserService builds a user service using the supplied dependencies.
// When no hasher is supplied, an identity hasher keeps tests fast.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	hash := deps.HashPassword
	if hash == nil {
		hash = func(password string) (string, error) { return password, nil }
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewUserService(deps.Users, hash, idGen, now)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
}

// NewAuthService builds an auth service using the supplied dependencies.
// When no verifier is supplied, plain string comparison keeps tests fast.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	verify := deps.PasswordVerify
	if verify == nil {
		verify = func(hash, password string) error {
			if hash != password {
				return application.ErrInvalidCredentials
			}
			return nil
		}
	}
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return application.NewAuthService(
		deps.Credentials,
		deps.Sessions,
		verify,
		token,
		now,
		ttl,
	)
}
