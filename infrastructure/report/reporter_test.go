package report

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/domain/entities"
)

func TestRecordResultLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r := NewLogReporter(logger, logrus.Fields{"worker": 1})

	r.RecordResult("Enter Username", "Username entered: standard_user", entities.SeverityPass)
	r.RecordResult("Click Login", "button disabled", entities.SeverityFail)
	r.RecordResult("Navigate", "slow page", entities.SeverityWarning)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
	assert.Equal(t, logrus.WarnLevel, entries[2].Level)
	assert.Equal(t, "Click Login", entries[1].Data["step"])
	assert.Equal(t, 1, entries[1].Data["worker"])

	assert.Equal(t, 1, r.Count(entities.SeverityFail))
	assert.Len(t, r.Results(), 3)
}

func TestRecordResultRedacts(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewLogReporter(logger, nil).Redacting(func(s string) string {
		return strings.ReplaceAll(s, "secret_sauce", "****")
	})

	r.RecordResult("Enter Password", "typed secret_sauce", entities.SeverityPass)

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "typed ****", hook.LastEntry().Message)
	assert.Equal(t, "typed ****", r.Results()[0].Message)
}
