package redisx

import "fmt"

const ns = "tixgate:v1"

func KeySnapshot(name string) string {
	return fmt.Sprintf("%s:snapshot:%s", ns, name)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdempotency(scope, idemKey string) string {
	return fmt.Sprintf("%s:idem:%s:%s", ns, scope, idemKey)
}

func ChannelTicketsChanged() string {
	return ns + ":tickets:changed"
}
