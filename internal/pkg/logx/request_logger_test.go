package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.42", "203.0.113.0"},
		{"10.1.2.3", "10.1.2.0"},
		{"2001:db8:abcd:12:1:2:3:4", "2001:db8:abcd:12::"},
		{"::1", "127.0.0.1"},
		{"127.0.0.1", "127.0.0.1"},
		{"not-an-ip", "unknown_ip"},
		{"", "unknown_ip"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, anonymizeIP(tc.in))
		})
	}
}
