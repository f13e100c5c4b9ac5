// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import "regexp"

// A CodeIdentifier identifies a code element that is a source, sink, sanitizer, etc. A code
// identifier can be identified from its package, method, receiver or type, or any combination of
// those. Fields may be regular expressions.
type CodeIdentifier struct {
	Package  string
	Method   string
	Receiver string
	Type     string
	// computed from the other fields after loading, not part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	packageRegex  *regexp.Regexp
	methodRegex   *regexp.Regexp
	receiverRegex *regexp.Regexp
	typeRegex     *regexp.Regexp
}

// CompileRegexes compiles the strings in the code identifier into regexes. Either all identifiers
// compile, or the identifier is returned without compiled regexes and falls back to string equality.
func CompileRegexes(cid CodeIdentifier) CodeIdentifier {
	packageRegex, err := regexp.Compile(cid.Package)
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(cid.Method)
	if err != nil {
		return cid
	}
	receiverRegex, err := regexp.Compile(cid.Receiver)
	if err != nil {
		return cid
	}
	typeRegex, err := regexp.Compile(cid.Type)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{packageRegex, methodRegex, receiverRegex, typeRegex}
	return cid
}

// equalOnNonEmptyFields returns true if each of the receiver's fields is either matched by the
// corresponding argument's field, or the argument's field is empty
func (cid *CodeIdentifier) equalOnNonEmptyFields(cidRef CodeIdentifier) bool {
	if cidRef.computedRegexs != nil {
		return (cidRef.computedRegexs.packageRegex.MatchString(cid.Package) || cidRef.Package == "") &&
			(cidRef.computedRegexs.methodRegex.MatchString(cid.Method) || cidRef.Method == "") &&
			(cidRef.computedRegexs.receiverRegex.MatchString(cid.Receiver) || cidRef.Receiver == "") &&
			(cidRef.computedRegexs.typeRegex.MatchString(cid.Type) || cidRef.Type == "")
	}
	return ((cid.Package == cidRef.Package) || (cidRef.Package == "")) &&
		((cid.Method == cidRef.Method) || (cidRef.Method == "")) &&
		((cid.Receiver == cidRef.Receiver) || (cidRef.Receiver == "")) &&
		((cid.Type == cidRef.Type) || (cidRef.Type == ""))
}

// ExistsCid is true if there is some x in a such that f(x) is true.
func ExistsCid(a []CodeIdentifier, f func(identifier CodeIdentifier) bool) bool {
	for _, x := range a {
		if f(x) {
			return true
		}
	}
	return false
}
