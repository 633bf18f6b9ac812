package diag

import (
	"fmt"
)

// Code identifies one diagnostic kind. Codes are ranged by pipeline phase
// so the stable ID string encodes which stage produced the diagnostic.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical (fatal: the token stream cannot be continued)
	LexInfo               Code = 1000
	LexTabIndent          Code = 1001
	LexDedentMismatch     Code = 1002
	LexUnterminatedString Code = 1003
	LexBadNumber          Code = 1004
	LexUnknownChar        Code = 1005
	LexUnterminatedInterp Code = 1006

	// Syntax (recoverable per declaration)
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynUnexpectedTopLevel Code = 2002
	SynExpectIdentifier Code = 2003
	SynExpectColon      Code = 2004
	SynExpectType       Code = 2005
	SynExpectExpression Code = 2006
	SynExpectNewline    Code = 2007
	SynExpectIndent     Code = 2008
	SynExpectPattern    Code = 2009
	SynUnclosedParen    Code = 2010
	SynUnclosedBracket  Code = 2011
	SynUnclosedBrace    Code = 2012
	SynBadImport        Code = 2013
	SynBadMatchArm      Code = 2014

	// Resolution
	ResInfo                Code = 3000
	ResUnresolvedImport    Code = 3001
	ResDuplicateName       Code = 3002
	ResUnresolvedName      Code = 3003
	ResSelfImport          Code = 3004
	ResUnknownModuleMember Code = 3005
	ResDuplicateImport     Code = 3006

	// Type checking
	TypInfo                  Code = 4000
	TypMismatch              Code = 4001
	TypUnknownType           Code = 4002
	TypMapKeyNotString       Code = 4003
	TypBadRefinementShape    Code = 4004
	TypRefinementViolation   Code = 4005
	TypUnknownBaseType       Code = 4006
	TypUnknownField          Code = 4007
	TypBadCoalesce           Code = 4008
	TypBadOptionalAccess     Code = 4009
	TypPropagateOutsideResult Code = 4010
	TypPropagateNeedsError   Code = 4011
	TypParamTypeRequired     Code = 4012
	TypCapabilityViolation   Code = 4013
	TypEnumPatternShape      Code = 4014
	TypArgCount              Code = 4015
	TypNotCallable           Code = 4016
	TypCondNotBool           Code = 4017
	TypAssignImmutable       Code = 4018
	TypValueCycle            Code = 4019
	TypDuplicateField        Code = 4020
	TypUnknownVariant        Code = 4021

	// Static safety
	SafInfo              Code = 5000
	SafDetachedTask      Code = 5001
	SafTransactionSpawn  Code = 5002
	SafTransactionReturn Code = 5003
	SafLayerCycle        Code = 5004
	SafMixedErrorDomain  Code = 5005

	// I/O
	IOLoadFileError Code = 6001

	// Project / manifest
	PrjInfo              Code = 7000
	PrjManifestError     Code = 7001
	PrjLanguageVersion   Code = 7002
	PrjInvalidImportPath Code = 7003
	PrjMissingModule     Code = 7004

	// Observability
	ObsTimings Code = 8001
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	LexInfo:                   "Lexical information",
	LexTabIndent:              "Tab character in indentation",
	LexDedentMismatch:         "Dedent to unknown indentation level",
	LexUnterminatedString:     "Unterminated string literal",
	LexBadNumber:              "Malformed numeric literal",
	LexUnknownChar:            "Unknown character",
	LexUnterminatedInterp:     "Unterminated interpolation",
	SynInfo:                   "Syntax information",
	SynUnexpectedToken:        "Unexpected token",
	SynUnexpectedTopLevel:     "Unexpected top-level construct",
	SynExpectIdentifier:       "Expected identifier",
	SynExpectColon:            "Expected ':'",
	SynExpectType:             "Expected type",
	SynExpectExpression:       "Expected expression",
	SynExpectNewline:          "Expected end of line",
	SynExpectIndent:           "Expected indented block",
	SynExpectPattern:          "Expected pattern",
	SynUnclosedParen:          "Unclosed parenthesis",
	SynUnclosedBracket:        "Unclosed bracket",
	SynUnclosedBrace:          "Unclosed brace",
	SynBadImport:              "Malformed import declaration",
	SynBadMatchArm:            "Malformed match arm",
	ResInfo:                   "Resolution information",
	ResUnresolvedImport:       "Unresolved import",
	ResDuplicateName:          "Duplicate top-level name",
	ResUnresolvedName:         "Unresolved name",
	ResSelfImport:             "Module imports itself",
	ResUnknownModuleMember:    "Unknown module member",
	ResDuplicateImport:        "Duplicate import",
	TypInfo:                   "Type information",
	TypMismatch:               "Type mismatch",
	TypUnknownType:            "Unknown type",
	TypMapKeyNotString:        "Map key type must be String",
	TypBadRefinementShape:     "Invalid refinement shape",
	TypRefinementViolation:    "Refinement violation",
	TypUnknownBaseType:        "Invalid refinement base type",
	TypUnknownField:           "Unknown field",
	TypBadCoalesce:            "Invalid operands for '??'",
	TypBadOptionalAccess:      "Invalid optional access",
	TypPropagateOutsideResult: "'?!' outside a Result-returning function",
	TypPropagateNeedsError:    "'?!' needs an error value",
	TypParamTypeRequired:      "Parameter type is required",
	TypCapabilityViolation:    "Capability not declared",
	TypEnumPatternShape:       "Pattern shape does not match variant payload",
	TypArgCount:               "Wrong number of arguments",
	TypNotCallable:            "Expression is not callable",
	TypCondNotBool:            "Condition must be Bool",
	TypAssignImmutable:        "Assignment to immutable binding",
	TypValueCycle:             "Cyclic value dependency",
	TypDuplicateField:         "Duplicate field",
	TypUnknownVariant:         "Unknown enum variant",
	SafInfo:                   "Safety information",
	SafDetachedTask:           "Detached task",
	SafTransactionSpawn:       "'spawn' inside transaction block",
	SafTransactionReturn:      "Early return inside transaction block",
	SafLayerCycle:             "Cross-layer import cycle",
	SafMixedErrorDomain:       "Mixed error domains",
	IOLoadFileError:           "I/O load file error",
	PrjInfo:                   "Project information",
	PrjManifestError:          "Malformed project manifest",
	PrjLanguageVersion:        "Language version constraint not satisfied",
	PrjInvalidImportPath:      "Invalid import path",
	PrjMissingModule:          "Missing module",
	ObsTimings:                "Pipeline timings",
}

// ID returns the stable diagnostic kind string, e.g. "TYP4005".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SAF%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// IsFatal reports whether the code aborts the compilation stage that
// produced it. Only indentation-breaking lex errors qualify.
func (c Code) IsFatal() bool {
	return c == LexDedentMismatch || c == LexTabIndent
}
