package services

import (
	"errors"
	"time"

	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupService struct {
	DB          *gorm.DB
	LockTimeout time.Duration
}

func NewGroupService(db *gorm.DB, lockTimeout time.Duration) *GroupService {
	return &GroupService{DB: db, LockTimeout: lockTimeout}
}

// MemberInfo is one group member joined with their user profile.
type MemberInfo struct {
	UserID       uint             `json:"userID"`
	Nickname     string           `json:"nickname"`
	ProfileImage *string          `json:"profileImage,omitempty"`
	Role         models.GroupRole `json:"role"`
	IsMe         bool             `json:"isMe,omitempty"`
}

// CreateGroup inserts the group and its HOST membership in one transaction.
// Without the transaction a failed membership insert would strand a host-less
// group; with it, both rows land or neither does.
func (s *GroupService) CreateGroup(name string, userID uint) (*models.Group, error) {
	group := models.Group{
		Name:   name,
		HostID: userID,
	}

	err := database.RunInTransaction(s.DB, s.LockTimeout, func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  userID,
			Role:    models.GroupRoleHost,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		return tx.First(&group, "id = ?", group.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (s *GroupService) GroupDetails(groupID uint) (*models.Group, error) {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GroupMembers lists members with the host first, then companions in join
// order.
func (s *GroupService) GroupMembers(groupID uint) ([]MemberInfo, error) {
	var members []MemberInfo
	err := s.DB.
		Table("group_members").
		Select("group_members.user_id, users.nickname, users.profile_image, group_members.role").
		Joins("JOIN users ON users.id = group_members.user_id").
		Where("group_members.group_id = ?", groupID).
		Order("group_members.role = 'HOST' DESC, group_members.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// EnsureMembership makes the user a COMPANION of the group if they are not a
// member yet. Reports whether a new membership row was created so callers
// know whether to announce the join.
func (s *GroupService) EnsureMembership(groupID, userID uint) (joined bool, err error) {
	err = database.RunInTransaction(s.DB, s.LockTimeout, func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var existing models.GroupMember
		err := tx.First(&existing, "group_id = ? AND user_id = ?", groupID, userID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		member := models.GroupMember{
			GroupID: groupID,
			UserID:  userID,
			Role:    models.GroupRoleCompanion,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		joined = true
		return nil
	})
	return joined, err
}

// CreateInviteLink mints a single-use-style invite code for the group. Only
// members can invite.
func (s *GroupService) CreateInviteLink(groupID, userID uint) (uuid.UUID, error) {
	if err := s.requireMembership(groupID, userID); err != nil {
		return uuid.Nil, err
	}

	invite := models.GroupInvite{
		GroupID:     groupID,
		CreatedByID: userID,
		Code:        uuid.New(),
	}
	if err := s.DB.Create(&invite).Error; err != nil {
		return uuid.Nil, err
	}
	return invite.Code, nil
}

// JoinByInvite resolves an invite code and adds the user as a COMPANION.
func (s *GroupService) JoinByInvite(code uuid.UUID, userID uint) (*models.Group, error) {
	var invite models.GroupInvite
	if err := s.DB.First(&invite, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	if _, err := s.EnsureMembership(invite.GroupID, userID); err != nil {
		return nil, err
	}

	return s.GroupDetails(invite.GroupID)
}

// PreviousGroup returns the user's most recent unfinished group, if any. Used
// by the client to resume an in-progress planning session.
func (s *GroupService) PreviousGroup(userID uint) (*models.Group, error) {
	var group models.Group
	err := s.DB.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ? AND groups.finished = ?", userID, false).
		Order("groups.created_at DESC").
		First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) requireMembership(groupID, userID uint) error {
	var count int64
	err := s.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}
