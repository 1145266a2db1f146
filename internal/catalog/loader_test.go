package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"broker/internal/platform/logger"
	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

const manifestHeader = "rule_label,rule_error_message,rule_cross_file_flag,file_type,severity_name,query_name,target_file,expected_value,category,ignore_deletes\n"

type LoaderSuite struct {
	suite.Suite
	ctx    context.Context
	dir    string
	loader *Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	s.Require().NoError(os.Mkdir(filepath.Join(s.dir, QueryPrefix), 0o755))
	s.loader = NewLoader(nil, logger.Discard())
}

func (s *LoaderSuite) writeManifest(rows string) {
	s.Require().NoError(os.WriteFile(
		filepath.Join(s.dir, ManifestName), []byte(manifestHeader+rows), 0o644))
}

func (s *LoaderSuite) writeQuery(name, body string) {
	s.Require().NoError(os.WriteFile(
		filepath.Join(s.dir, QueryPrefix, name+".sql"), []byte(body), 0o644))
}

func (s *LoaderSuite) read() ([]Rule, string, error) {
	return s.loader.read(s.ctx, NewDirSource(s.dir))
}

// TestRead verifies manifest parsing, predicate attachment, and ordering.
func (s *LoaderSuite) TestRead() {
	s.Run("parses rules and sorts by label", func() {
		s.writeManifest(
			"B9,Obligation {obligation} out of balance,false,B,warning,b9,,0,accounting,true\n" +
				"A10,TAS {tas} missing,false,A,fatal,a10,,,completeness,\n")
		s.writeQuery("a10", "SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id")
		s.writeQuery("b9", "SELECT row_number, obligation FROM object_class_program_activity WHERE submission_id = :submission_id")

		rules, version, err := s.read()
		s.Require().NoError(err)
		s.Require().Len(rules, 2)
		s.Equal("A10", rules[0].Label)
		s.Equal("B9", rules[1].Label)
		s.Equal(domain.FileTypeAppropriations, rules[0].FileType)
		s.Equal(domain.SeverityFatal, rules[0].Severity)
		s.Contains(rules[0].PredicateSQL, "FROM appropriation")
		s.NotEmpty(version)
	})

	s.Run("empty ignore_deletes defaults to true", func() {
		s.writeManifest("A10,TAS {tas} missing,false,A,fatal,a10,,,completeness,\n")
		s.writeQuery("a10", "SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id")

		rules, _, err := s.read()
		s.Require().NoError(err)
		s.True(rules[0].IgnoreDeletes)
	})

	s.Run("explicit false ignore_deletes survives", func() {
		s.writeManifest("FABS49,Office {awarding_office_code} invalid,false,D2,fatal,fabs49,,,agency,false\n")
		s.writeQuery("fabs49", "SELECT row_number, awarding_office_code, correction_delete_indicatr FROM detached_award_financial_assistance WHERE submission_id = :submission_id")

		rules, _, err := s.read()
		s.Require().NoError(err)
		s.False(rules[0].IgnoreDeletes)
	})

	s.Run("cross-file rule carries its target", func() {
		s.writeManifest("B21,TAS not in award file,true,B,warning,b21,D1,,linkage,true\n")
		s.writeQuery("b21", "SELECT source_row_number FROM object_class_program_activity WHERE submission_id = :submission_id")

		rules, _, err := s.read()
		s.Require().NoError(err)
		s.True(rules[0].CrossFile)
		s.Equal("D1", rules[0].TargetFile())
	})
}

// TestReadRejects verifies every malformed catalog is a fatal catalog error.
func (s *LoaderSuite) TestReadRejects() {
	valid := "SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id"

	s.Run("wrong header", func() {
		s.Require().NoError(os.WriteFile(filepath.Join(s.dir, ManifestName),
			[]byte("label,message\nA10,x\n"), 0o644))
		_, _, err := s.read()
		s.Require().ErrorIs(err, sentinel.ErrCatalogInvalid)
	})

	s.Run("duplicate label", func() {
		s.writeManifest(
			"A10,m,false,A,fatal,a10,,,c,\n" +
				"A10,m,false,A,fatal,a10,,,c,\n")
		s.writeQuery("a10", valid)
		_, _, err := s.read()
		s.Require().ErrorIs(err, sentinel.ErrCatalogInvalid)
	})

	s.Run("unknown file type", func() {
		s.writeManifest("A10,m,false,Z,fatal,a10,,,c,\n")
		_, _, err := s.read()
		s.Require().ErrorIs(err, sentinel.ErrCatalogInvalid)
	})

	s.Run("missing predicate file", func() {
		s.writeManifest("A10,m,false,A,fatal,nonexistent,,,c,\n")
		_, _, err := s.read()
		s.Require().ErrorIs(err, sentinel.ErrCatalogInvalid)
	})

	s.Run("cross-file rule without target", func() {
		s.writeManifest("B21,m,true,B,warning,b21,,,c,\n")
		s.writeQuery("b21", "SELECT source_row_number FROM x WHERE submission_id = :submission_id")
		_, _, err := s.read()
		s.Require().ErrorIs(err, sentinel.ErrCatalogInvalid)
	})
}

// TestChecksum verifies the catalog version is content-addressed: manifest
// row order never changes it, any engine-visible field does.
func (s *LoaderSuite) TestChecksum() {
	queryA := "SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id"
	queryB := "SELECT row_number, obligation FROM object_class_program_activity WHERE submission_id = :submission_id"

	s.writeQuery("a10", queryA)
	s.writeQuery("b9", queryB)

	s.writeManifest(
		"A10,TAS {tas} missing,false,A,fatal,a10,,,completeness,true\n" +
			"B9,Obligation {obligation} off,false,B,warning,b9,,,accounting,true\n")
	_, first, err := s.read()
	s.Require().NoError(err)

	s.Run("row order does not change the version", func() {
		s.writeManifest(
			"B9,Obligation {obligation} off,false,B,warning,b9,,,accounting,true\n" +
				"A10,TAS {tas} missing,false,A,fatal,a10,,,completeness,true\n")
		_, version, err := s.read()
		s.Require().NoError(err)
		s.Equal(first, version)
	})

	s.Run("a message edit changes the version", func() {
		s.writeManifest(
			"A10,TAS {tas} absent,false,A,fatal,a10,,,completeness,true\n" +
				"B9,Obligation {obligation} off,false,B,warning,b9,,,accounting,true\n")
		_, version, err := s.read()
		s.Require().NoError(err)
		s.NotEqual(first, version)
	})

	s.Run("a predicate edit changes the version", func() {
		s.writeManifest(
			"A10,TAS {tas} missing,false,A,fatal,a10,,,completeness,true\n" +
				"B9,Obligation {obligation} off,false,B,warning,b9,,,accounting,true\n")
		s.writeQuery("a10", queryA+" AND tas IS NOT NULL")
		_, version, err := s.read()
		s.Require().NoError(err)
		s.NotEqual(first, version)
	})
}

// TestDirSource verifies the filesystem source rejects path traversal.
func (s *LoaderSuite) TestDirSource() {
	src := NewDirSource(s.dir)
	_, err := src.Predicate(s.ctx, "../outside")
	s.Require().Error(err)
	_, err = src.Predicate(s.ctx, `..\outside`)
	s.Require().Error(err)
}
