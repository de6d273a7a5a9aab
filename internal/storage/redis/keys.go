package redis

import (
	"fmt"
	"strings"

	"github.com/mcoot/veriloc/internal/model"
)

// Key prefix for all veriloc data
const keyPrefix = "veriloc"

// adminKey returns the Redis key for an Admin
func adminKey(id model.AdminID) string {
	return fmt.Sprintf("%s:admin:%s", keyPrefix, id)
}

// adminsIndexKey returns the Redis key for the SET of admin IDs
func adminsIndexKey() string {
	return fmt.Sprintf("%s:idx:admins", keyPrefix)
}

// fingerprintIndexKey returns the Redis key for the fingerprint -> admin_id index
func fingerprintIndexKey(fp model.Identity) string {
	return fmt.Sprintf("%s:idx:fingerprint:%d", keyPrefix, fp)
}

// emailIndexKey returns the Redis key for the email -> admin_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, strings.ToLower(email))
}

// credentialsKey returns the Redis key for an admin's AdminCredentials
func credentialsKey(id model.AdminID) string {
	return fmt.Sprintf("%s:credentials:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> admin_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// roomKey returns the Redis key for a Room
func roomKey(number string) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, number)
}

// roomsIndexKey returns the Redis key for the SET of room numbers
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// activityKey returns the Redis key for the activity LIST, newest at the head
func activityKey() string {
	return fmt.Sprintf("%s:activity", keyPrefix)
}
