package resources

import (
	"context"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// User manages cluster control-plane users.
type User struct {
	*core.EnterpriseResource
}

// ResetPasswordWithContext replaces all of the target user's passwords
// with the given one.
func (u *User) ResetPasswordWithContext(ctx context.Context, uid any, password string) (core.Record, error) {
	return u.UpdateWithContext(ctx, uid, core.Params{"password": password})
}

func (u *User) ResetPassword(uid any, password string) (core.Record, error) {
	return u.ResetPasswordWithContext(u.Rest.GetCtx(), uid, password)
}

// GetByEmailWithContext finds the single user with the given email.
func (u *User) GetByEmailWithContext(ctx context.Context, email string) (core.Record, error) {
	return u.GetWithContext(ctx, core.Params{"email": email})
}

func (u *User) GetByEmail(email string) (core.Record, error) {
	return u.GetByEmailWithContext(u.Rest.GetCtx(), email)
}

// Role manages role definitions referenced by users and ACL bindings.
type Role struct {
	*core.EnterpriseResource
}

// RedisACL manages reusable Redis ACL rule definitions.
type RedisACL struct {
	*core.EnterpriseResource
}
