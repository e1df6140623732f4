package logger_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/tableload/logger"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Logger", func() {
	log := logger.NewLogger("test-service", "debug", true)
	log.SetFormatter(&logrus.JSONFormatter{})

	It("Should have `test-service` as service name", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should have warn as log level", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Warn("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Error("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())

		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should add fields to a child logger only", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.WithField("runId", "abc").Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["runId"]).To(Equal("abc"))
		Expect(actual["msg"]).To(Equal("Testing"))

		logOutput.Reset()
		log.Info("Parent")
		actual = nil
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual).ToNot(HaveKey("runId"))
	})

	It("Should refuse an unknown level", func() {
		_, err := logger.NewFileLogger("svc", "chatty", false, filepath.Join(os.TempDir(), "never.log"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("File logger", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "logger-test-")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	It("Should read back every line written", func() {
		path := filepath.Join(dir, "logs", "job.log")
		log, err := logger.NewFileLogger("file-service", "info", false, path)
		Expect(err).ToNot(HaveOccurred())
		defer log.Close()
		log.SetOutput(ioutil.Discard) // keep stderr quiet, the file still receives output.

		log.Info("fetching")
		log.Debug("hidden at info level")
		log.Warn("retrying chunk 3")

		b, err := log.ReadBack()
		Expect(err).ToNot(HaveOccurred())
		Expect(string(b)).To(ContainSubstring("fetching"))
		Expect(string(b)).To(ContainSubstring("retrying chunk 3"))
		Expect(string(b)).ToNot(ContainSubstring("hidden at info level"))
		Expect(log.FilePath()).To(Equal(path))
	})

	It("Should fail to read back without a file", func() {
		log := logger.NewLogger("no-file", "info", false)
		_, err := log.ReadBack()
		Expect(err).To(HaveOccurred())
		Expect(log.Flush()).To(Succeed())
	})
})
