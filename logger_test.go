package main

import (
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
)

func TestLogConfigFile(t *testing.T) {
	logConfig, err := parseLogConfig("file:some.log@0")
	assert.Nil(t, err)
	assert.Len(t, logConfig.files, 1)
	assert.Equal(t, "some.log", logConfig.files[0].name)
	assert.Equal(t, logging.WARNING, logConfig.files[0].level)
	assert.False(t, logConfig.syslog.enabled)
	assert.False(t, logConfig.stderr.enabled)
}

func TestLogConfigStderr(t *testing.T) {
	logConfig, err := parseLogConfig("stderr@2")
	assert.Nil(t, err)
	assert.Empty(t, logConfig.files)
	assert.True(t, logConfig.stderr.enabled)
	assert.Equal(t, logging.DEBUG, logConfig.stderr.level)
}

func TestLogConfigCombined(t *testing.T) {
	logConfig, err := parseLogConfig("file:surbld.log@0,stderr@1,syslog@2")
	assert.Nil(t, err)
	assert.Len(t, logConfig.files, 1)
	assert.True(t, logConfig.stderr.enabled)
	assert.Equal(t, logging.INFO, logConfig.stderr.level)
	assert.True(t, logConfig.syslog.enabled)
	assert.Equal(t, logging.DEBUG, logConfig.syslog.level)
}

func TestLogConfigMultipleFiles(t *testing.T) {
	logConfig, err := parseLogConfig("file:one.log@0,file:two.log@2")
	assert.Nil(t, err)
	assert.Len(t, logConfig.files, 2)
	assert.Equal(t, "one.log", logConfig.files[0].name)
	assert.Equal(t, "two.log", logConfig.files[1].name)
	assert.Equal(t, logging.DEBUG, logConfig.files[1].level)
}

func TestLogConfigBadLevel(t *testing.T) {
	_, err := parseLogConfig("file:some.log@9")
	assert.NotNil(t, err)

	_, err = parseLogConfig("stderr@x")
	assert.NotNil(t, err)
}

func TestLogConfigBadFragment(t *testing.T) {
	_, err := parseLogConfig("wrong:entry")
	assert.NotNil(t, err)
}
