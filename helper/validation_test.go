package helper

import (
	"testing"

	. "github.com/onsi/gomega"
)

type testTarget struct {
	Table string `errorTxt:"target table" mandatory:"yes"`
}

type testRunConfig struct {
	JobName    string `errorTxt:"job name" mandatory:"yes"`
	Recipients string
	Target     testTarget
	hidden     string
}

func TestValidateStructIsPopulated(t *testing.T) {
	g := NewGomegaWithT(t)
	err := ValidateStructIsPopulated(&testRunConfig{hidden: "x"})
	g.Expect(err).To(MatchError("please supply values for job name, target table"))
	err = ValidateStructIsPopulated(testRunConfig{JobName: "FatoFechamento", Target: testTarget{Table: "FatoFechamento_v2"}})
	g.Expect(err).ToNot(HaveOccurred())
}
