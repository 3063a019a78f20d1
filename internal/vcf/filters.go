package vcf

import "strings"

// filterParser is the per-version FILTER grammar. Implementations return
// the ordered filter names, or nil for "not filtered".
type filterParser interface {
	parseFilters(c *Codec, ctx *DecodeContext, filterString string) ([]string, error)
}

func filterParserForVersion(v Version) filterParser {
	if v.AtLeast(Version4_0) {
		return filterParserV4{}
	}
	return filterParserV3{}
}

// filterParserV4 implements the 4.x grammar: "PASS" means filtered and
// passing, "." means not filtered, "0" is an explicit error, anything else
// is a semicolon-separated filter list.
type filterParserV4 struct{}

func (filterParserV4) parseFilters(c *Codec, ctx *DecodeContext, filterString string) ([]string, error) {
	if filterString == PassesFiltersV4 {
		return []string{}, nil
	}
	if filterString == Unfiltered {
		return nil, nil
	}
	if filterString == PassesFiltersV3 {
		return nil, c.malformed("0 is an invalid filter name in vcf4")
	}
	if filterString == "" {
		return nil, c.malformed("empty FILTER fields are discouraged and not permitted")
	}
	return splitCachedFilters(ctx, filterString), nil
}

// filterParserV3 implements the 3.x grammar, where "0" marked passing.
type filterParserV3 struct{}

func (filterParserV3) parseFilters(c *Codec, ctx *DecodeContext, filterString string) ([]string, error) {
	if filterString == PassesFiltersV3 {
		return []string{}, nil
	}
	if filterString == Unfiltered {
		return nil, nil
	}
	if filterString == "" {
		return nil, c.malformed("empty FILTER fields are discouraged and not permitted")
	}
	return splitCachedFilters(ctx, filterString), nil
}

// splitCachedFilters memoizes filter-field splits: filter strings repeat
// heavily across records, so each distinct encoding is split once per
// decode context.
func splitCachedFilters(ctx *DecodeContext, filterString string) []string {
	if cached, ok := ctx.filterCache[filterString]; ok {
		return cached
	}
	var filters []string
	if strings.IndexByte(filterString, InfoFieldSeparatorChar) == -1 {
		filters = []string{filterString}
	} else {
		filters = strings.Split(filterString, string(InfoFieldSeparatorChar))
	}
	ctx.filterCache[filterString] = filters
	return filters
}
