// Copyright 2020-2025 Buf Technologies, Inc.
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

package parser

import (
	"math"

	"github.com/bufbuild/protoast/ast"
)

// parseReserved parses a reserved statement, which lists either names or
// number ranges. The keyword max stands for maxValue.
func (p *parser) parseReserved(maxValue int64) *ast.Reserved {
	kw := p.next()
	rsvd := &ast.Reserved{}
	if p.peek().Kind == TokenString {
		for {
			tok := p.next()
			rsvd.Names = append(rsvd.Names, tok.Str)
			if !p.accept(',') {
				break
			}
			if next := p.peek(); next.Kind != TokenString {
				p.unexpected(next, "in reserved names", "string literal")
				p.skipStatement()
				return nil
			}
		}
	} else {
		ranges, ok := p.parseRanges("in reserved range", maxValue)
		if !ok {
			p.skipStatement()
			return nil
		}
		rsvd.Ranges = ranges
	}
	p.endStatement("after reserved declaration")
	rsvd.Spanned = ast.At(p.spanFrom(kw))
	return rsvd
}

func (p *parser) parseExtensionRange() *ast.ExtensionRange {
	kw := p.next()
	ranges, ok := p.parseRanges("in extension range", ast.MaxFieldNumber)
	if !ok {
		p.skipStatement()
		return nil
	}
	rng := &ast.ExtensionRange{Ranges: ranges}
	if p.peek().IsPunct('[') {
		opts, ok := p.parseCompactOptions()
		rng.Options = opts
		if !ok {
			p.skipStatement()
			rng.Spanned = ast.At(p.spanFrom(kw))
			return rng
		}
	}
	p.endStatement("after extension range")
	rng.Spanned = ast.At(p.spanFrom(kw))
	return rng
}

// parseRanges parses a comma-separated list of numbers and ranges, such as
// "1, 5 to 10, 100 to max".
func (p *parser) parseRanges(where string, maxValue int64) ([]*ast.Range, bool) {
	var ranges []*ast.Range
	for {
		start := p.peek()
		lo, ok := p.parseRangeBound(where)
		if !ok {
			return nil, false
		}
		rng := &ast.Range{Start: lo, End: lo}
		if p.peek().IsIdent("to") {
			p.next()
			if p.peek().IsIdent("max") {
				p.next()
				rng.End = maxValue
				rng.Max = true
			} else {
				hi, ok := p.parseRangeBound(`after "to"`)
				if !ok {
					return nil, false
				}
				rng.End = hi
			}
		}
		rng.Spanned = ast.At(p.spanFrom(start))
		ranges = append(ranges, rng)
		if !p.accept(',') {
			return ranges, true
		}
	}
}

// parseRangeBound parses a possibly negative integer. Values beyond the
// range of int64 saturate; validation reports them as out of range.
func (p *parser) parseRangeBound(where string) (int64, bool) {
	negative := p.accept('-')
	tok := p.peek()
	if tok.Kind != TokenInt {
		p.unexpected(tok, where, "integer")
		return 0, false
	}
	p.next()
	if !negative {
		return clampInt64(tok.Int), true
	}
	if tok.Int >= 1<<63 {
		return math.MinInt64, true
	}
	return -int64(tok.Int), true
}
