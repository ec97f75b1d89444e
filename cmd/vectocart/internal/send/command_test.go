package send

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendCommand(t *testing.T) {
	cmd := NewSendCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "send <kind>", cmd.Use)
	assert.True(t, cmd.HasExample())
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Flags().Lookup("payload"))
}

func TestKindList_CoversContract(t *testing.T) {
	list := kindList()
	for _, kind := range []string{"vc:ping", "rooms:create", "votes:cast", "sidepanel:open"} {
		assert.True(t, strings.Contains(list, kind), "kind list missing %s", kind)
	}
}
