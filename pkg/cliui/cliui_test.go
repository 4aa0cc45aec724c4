package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aichat/pkg/cliui"
)

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses tenths of seconds above a second", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Mark", func() {
	It("returns the success mark for nil", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
	})

	It("returns the failure mark for errors", func() {
		Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("Step", func() {
	It("returns the error from fn and prints the message", func() {
		buf := &bytes.Buffer{}
		boom := errors.New("boom")

		err := cliui.Step(buf, "Resolving provider", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("Resolving provider"))
		Expect(buf.String()).To(HaveSuffix("\n"))
	})
})

var _ = Describe("KeyValue", func() {
	It("prints the key and value", func() {
		buf := &bytes.Buffer{}
		cliui.KeyValue(buf, "Model", "openai/myserver")
		Expect(buf.String()).To(ContainSubstring("Model:"))
		Expect(buf.String()).To(ContainSubstring("openai/myserver"))
	})
})
