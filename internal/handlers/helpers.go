package handlers

import (
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
)

// более устойчиво к типам (int / int64 / float64)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	}
	return 0, false
}

// isStrictEmail: адрес парсится и у хоста есть точка с непустым TLD.
// Биндинг-тег `email` пропускает адреса вида a@b, нам этого мало.
func isStrictEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 {
		return false
	}
	hostParts := strings.Split(addr.Address[at+1:], ".")
	return len(hostParts) > 1 && hostParts[len(hostParts)-1] != ""
}
