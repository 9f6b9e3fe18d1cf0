// Package permissions decides which users may issue which
// commands.
package permissions

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	ErrNotAdmin    = errors.New("only chat admins may use this command")
	ErrNotSudo     = errors.New("only sudo users may use this command")
	ErrBlocked     = errors.New("user is blocked")
	ErrMaintenance = errors.New("bot is under maintenance")
	ErrRateLimited = errors.New("too many requests")
)

// adminPermissions are the permissions any of which make a
// member a chat admin.
const adminPermissions int64 = discordgo.PermissionAdministrator |
	discordgo.PermissionManageServer |
	discordgo.PermissionManageChannels

const defaultMaxLimiters = 10000

type Configuration struct {
	LogLevel  log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	SudoUsers []string  `yaml:"SudoUsers" env:"SUDO_USERS"`
	// AdminOnlyControls restricts skip, stop, pause and resume
	// to the chat admins.
	AdminOnlyControls bool `yaml:"AdminOnlyControls" env:"ADMIN_ONLY_CONTROLS"`
	// PlayInterval is the average interval between the play requests
	// of a single user, PlayBurst requests may be sent at once.
	PlayInterval time.Duration `yaml:"PlayInterval" validate:"required"`
	PlayBurst    int           `yaml:"PlayBurst" validate:"required,min=1"`
	// MaxLimiters bounds the number of users whose play requests
	// are tracked, the least recently active are forgotten.
	MaxLimiters int `yaml:"MaxLimiters" validate:"min=0"`
}

type PermissionsChecker struct {
	log         *log.Logger
	config      *Configuration
	session     func() *discordgo.Session
	mutex       sync.RWMutex
	sudo        map[string]struct{}
	blocked     map[string]struct{}
	maintenance bool
	limiters    *simplelru.LRU[string, *rate.Limiter]
}

// NewPermissionsChecker constructs a new object that
// handles checking permissions for users.
func NewPermissionsChecker(config *Configuration, session func() *discordgo.Session) *PermissionsChecker {
	l := log.New()
	l.SetLevel(config.LogLevel)

	sudo := make(map[string]struct{})
	for _, id := range config.SudoUsers {
		sudo[id] = struct{}{}
	}
	size := config.MaxLimiters
	if size <= 0 {
		size = defaultMaxLimiters
	}
	limiters, err := simplelru.NewLRU[string, *rate.Limiter](size, nil)
	if err != nil {
		l.Panic(err)
	}
	l.WithField("SudoUsers", len(sudo)).Debug("Permissions checker created")
	return &PermissionsChecker{
		log:      l,
		config:   config,
		session:  session,
		sudo:     sudo,
		blocked:  make(map[string]struct{}),
		limiters: limiters,
	}
}

// IsSudo returns true if the user bypasses all the checks.
func (checker *PermissionsChecker) IsSudo(userID string) bool {
	_, ok := checker.sudo[userID]
	return ok
}

// CheckSudo returns ErrNotSudo if the user is not a sudo user.
func (checker *PermissionsChecker) CheckSudo(userID string) error {
	if !checker.IsSudo(userID) {
		return ErrNotSudo
	}
	return nil
}

// CheckCommand returns an error if the user may not
// issue any command.
func (checker *PermissionsChecker) CheckCommand(userID string) error {
	if checker.IsSudo(userID) {
		return nil
	}
	checker.mutex.RLock()
	defer checker.mutex.RUnlock()
	if _, ok := checker.blocked[userID]; ok {
		return ErrBlocked
	}
	if checker.maintenance {
		return ErrMaintenance
	}
	return nil
}

// CheckControl returns an error if the member may not control
// the playback in the guild.
func (checker *PermissionsChecker) CheckControl(guildID string, member *discordgo.Member) error {
	if member == nil || member.User == nil {
		return ErrNotAdmin
	}
	if err := checker.CheckCommand(member.User.ID); err != nil {
		return err
	}
	if !checker.config.AdminOnlyControls || checker.IsSudo(member.User.ID) {
		return nil
	}
	if !checker.IsAdmin(guildID, member) {
		return ErrNotAdmin
	}
	return nil
}

// IsAdmin returns true if the member owns the guild or has any
// of the administrator, manage server or manage channels permissions.
func (checker *PermissionsChecker) IsAdmin(guildID string, member *discordgo.Member) bool {
	if member.Permissions&adminPermissions != 0 {
		return true
	}
	s := checker.session()
	if s == nil || s.State == nil {
		return false
	}
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return false
	}
	if guild.OwnerID == member.User.ID {
		return true
	}
	var permissions int64
	for _, role := range guild.Roles {
		// NOTE: the @everyone role has the guild's id
		if role.ID == guildID {
			permissions |= role.Permissions
		}
	}
	for _, roleID := range member.Roles {
		if role, err := s.State.Role(guildID, roleID); err == nil {
			permissions |= role.Permissions
		}
	}
	return permissions&adminPermissions != 0
}

// AllowPlay returns ErrRateLimited if the user sent too many
// play requests recently.
func (checker *PermissionsChecker) AllowPlay(userID string) error {
	if checker.IsSudo(userID) {
		return nil
	}
	checker.mutex.Lock()
	limiter, ok := checker.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(
			rate.Every(checker.config.PlayInterval),
			checker.config.PlayBurst,
		)
		checker.limiters.Add(userID, limiter)
	}
	checker.mutex.Unlock()

	if !limiter.Allow() {
		return ErrRateLimited
	}
	return nil
}

// Block prevents the user from issuing any command.
// Sudo users cannot be blocked. Returns false if the
// user was already blocked.
func (checker *PermissionsChecker) Block(userID string) (bool, error) {
	if checker.IsSudo(userID) {
		return false, ErrNotSudo
	}
	checker.mutex.Lock()
	defer checker.mutex.Unlock()
	if _, ok := checker.blocked[userID]; ok {
		return false, nil
	}
	checker.blocked[userID] = struct{}{}
	checker.log.WithField("UserID", userID).Info("User blocked")
	return true, nil
}

// Unblock allows the user to issue commands again.
// Returns false if the user was not blocked.
func (checker *PermissionsChecker) Unblock(userID string) bool {
	checker.mutex.Lock()
	defer checker.mutex.Unlock()
	if _, ok := checker.blocked[userID]; !ok {
		return false
	}
	delete(checker.blocked, userID)
	checker.log.WithField("UserID", userID).Info("User unblocked")
	return true
}

// SetMaintenance enables or disables the maintenance mode,
// in which only the sudo users may issue commands.
func (checker *PermissionsChecker) SetMaintenance(enabled bool) {
	checker.mutex.Lock()
	defer checker.mutex.Unlock()
	checker.maintenance = enabled
	checker.log.WithField("Enabled", enabled).Info("Maintenance mode changed")
}

// Maintenance returns true if the maintenance mode is enabled.
func (checker *PermissionsChecker) Maintenance() bool {
	checker.mutex.RLock()
	defer checker.mutex.RUnlock()
	return checker.maintenance
}
