package cont

import "context"

type ctxKey string

const AdminKey ctxKey = "adminIdentity"

// PutAdmin stores the authenticated admin identity in the request context.
func PutAdmin(c context.Context, identity string) context.Context {
	return context.WithValue(c, AdminKey, identity)
}

// GetAdmin returns the admin identity set by the admin auth middleware,
// or an empty string outside admin routes.
func GetAdmin(c context.Context) string {
	identity, ok := c.Value(AdminKey).(string)
	if !ok {
		return ""
	}
	return identity
}
