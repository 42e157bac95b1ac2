package policy

import (
	"testing"

	"review-catalog/internal/data/entity"
	"review-catalog/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func actor(role entity.UserRole) *Actor {
	return &Actor{ID: uuid.New(), Role: role}
}

func TestDecide_Catalog(t *testing.T) {
	admin := actor(entity.RoleAdmin)
	moderator := actor(entity.RoleModerator)
	user := actor(entity.RoleUser)
	superuser := &Actor{ID: uuid.New(), Role: entity.RoleUser, IsSuperuser: true}

	for _, kind := range []Kind{KindCategory, KindGenre, KindTitle} {
		t.Run(string(kind), func(t *testing.T) {
			assert.Equal(t, Allow, Decide(nil, ActionRead, On(kind)))
			assert.Equal(t, Allow, Decide(user, ActionRead, On(kind)))

			for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
				assert.Equal(t, Unauthenticated, Decide(nil, action, On(kind)))
				assert.Equal(t, Forbidden, Decide(user, action, On(kind)))
				assert.Equal(t, Forbidden, Decide(moderator, action, On(kind)))
				assert.Equal(t, Allow, Decide(admin, action, On(kind)))
				assert.Equal(t, Allow, Decide(superuser, action, On(kind)))
			}
		})
	}
}

func TestDecide_ReviewsAndComments(t *testing.T) {
	author := actor(entity.RoleUser)
	other := actor(entity.RoleUser)
	moderator := actor(entity.RoleModerator)
	admin := actor(entity.RoleAdmin)
	superuser := &Actor{ID: uuid.New(), Role: entity.RoleUser, IsSuperuser: true}

	for _, kind := range []Kind{KindReview, KindComment} {
		t.Run(string(kind), func(t *testing.T) {
			res := Owned(kind, author.ID)

			assert.Equal(t, Allow, Decide(nil, ActionRead, res))
			assert.Equal(t, Unauthenticated, Decide(nil, ActionCreate, On(kind)))
			assert.Equal(t, Allow, Decide(other, ActionCreate, On(kind)))

			for _, action := range []Action{ActionUpdate, ActionDelete} {
				assert.Equal(t, Unauthenticated, Decide(nil, action, res))
				assert.Equal(t, Allow, Decide(author, action, res))
				assert.Equal(t, Forbidden, Decide(other, action, res))
				assert.Equal(t, Allow, Decide(moderator, action, res))
				assert.Equal(t, Allow, Decide(admin, action, res))
				assert.Equal(t, Allow, Decide(superuser, action, res))
			}
		})
	}
}

func TestDecide_UserManagement(t *testing.T) {
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		assert.Equal(t, Unauthenticated, Decide(nil, action, On(KindUser)))
		assert.Equal(t, Forbidden, Decide(actor(entity.RoleUser), action, On(KindUser)))
		assert.Equal(t, Forbidden, Decide(actor(entity.RoleModerator), action, On(KindUser)))
		assert.Equal(t, Allow, Decide(actor(entity.RoleAdmin), action, On(KindUser)))
	}
}

func TestDecide_Profile(t *testing.T) {
	me := actor(entity.RoleUser)
	admin := actor(entity.RoleAdmin)

	assert.Equal(t, Allow, Decide(me, ActionRead, Owned(KindProfile, me.ID)))
	assert.Equal(t, Allow, Decide(me, ActionUpdate, Owned(KindProfile, me.ID)))
	assert.Equal(t, Forbidden, Decide(me, ActionDelete, Owned(KindProfile, me.ID)))
	assert.Equal(t, Forbidden, Decide(admin, ActionUpdate, Owned(KindProfile, me.ID)))
	assert.Equal(t, Unauthenticated, Decide(nil, ActionRead, Owned(KindProfile, me.ID)))
}

func TestDecide_UnknownRoleIsPlainUser(t *testing.T) {
	bogus := &Actor{ID: uuid.New(), Role: entity.UserRole("root")}

	assert.Equal(t, Forbidden, Decide(bogus, ActionCreate, On(KindTitle)))
	assert.Equal(t, Forbidden, Decide(bogus, ActionDelete, Owned(KindReview, uuid.New())))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(nil, ActionRead, On(KindTitle)))
	assert.True(t, apperror.IsAuthentication(Check(nil, ActionCreate, On(KindReview))))
	assert.True(t, apperror.IsPermission(Check(actor(entity.RoleUser), ActionDelete, On(KindGenre))))
	assert.True(t, Can(actor(entity.RoleAdmin), ActionDelete, On(KindGenre)))
}
