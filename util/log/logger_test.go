package log

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestFormatPlain(t *testing.T) {
	flf := &FancyLogFormatter{}

	entry := &logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "hello world",
		Time:    time.Date(2019, 3, 14, 15, 9, 2, 0, time.UTC),
	}

	out, err := flf.Format(entry)
	require.NoError(t, err)

	line := string(out)
	require.True(t, strings.HasSuffix(line, "\n"))
	require.Contains(t, line, "14.03.2019/15:09:02")
	require.Contains(t, line, "hello world")
}

func TestFormatFields(t *testing.T) {
	flf := &FancyLogFormatter{}

	entry := &logrus.Entry{
		Level:   logrus.WarnLevel,
		Message: "watch out",
		Time:    time.Now(),
		Data:    logrus.Fields{"round": 4},
	}

	out, err := flf.Format(entry)
	require.NoError(t, err)
	require.Contains(t, string(out), "round=4")
}
