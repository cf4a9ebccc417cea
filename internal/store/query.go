package store

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pagination bounds shared by every list endpoint.
const (
	DefaultPage  = 1
	DefaultLimit = 15
	MaxLimit     = 30
)

type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
)

// CollectionSpec declares which fields of a collection may be filtered and
// which are matched by a keyword search. Unknown request fields are ignored.
type CollectionSpec struct {
	Filterable map[string]FieldKind
	Searchable []string
}

// Comparison operators accepted in the query string, e.g. ?price[gte]=100.
var filterOps = []struct {
	name  string
	mongo string
}{
	{"gte", "$gte"},
	{"gt", "$gt"},
	{"lte", "$lte"},
	{"lt", "$lt"},
	{"eq", "$eq"},
}

type filterClause struct {
	field string
	op    string // mongo operator, empty for plain equality
	value any
}

type sortField struct {
	field string
	dir   int
}

// ListQuery is the composed plan for a list endpoint: filter, search, sort
// and pagination in a fixed application order. Building it never touches the
// store; Plan returns the same predicate and options for the same inputs no
// matter how the request parameters were ordered.
type ListQuery struct {
	page    int64
	limit   int64
	sorts   []sortField
	clauses []filterClause
	keyword string
	spec    CollectionSpec
	scope   []filterClause
}

// ParseListQuery reads page, limit, sort, keyword and field filters out of a
// request query string. Malformed numbers and unrecognized fields are
// dropped rather than rejected, so listing stays permissive.
func ParseListQuery(q url.Values, spec CollectionSpec) *ListQuery {
	lq := &ListQuery{
		page:  DefaultPage,
		limit: DefaultLimit,
		spec:  spec,
	}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		if page, err := strconv.ParseInt(v, 10, 64); err == nil && page > 0 {
			lq.page = page
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if limit, err := strconv.ParseInt(v, 10, 64); err == nil {
			switch {
			case limit <= 0:
				lq.limit = DefaultLimit
			case limit > MaxLimit:
				lq.limit = MaxLimit
			default:
				lq.limit = limit
			}
		}
	}

	// Fields are visited in sorted order so two requests with the same
	// parameters always produce the same clause list.
	fields := make([]string, 0, len(spec.Filterable))
	for f := range spec.Filterable {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		kind := spec.Filterable[field]
		if v := q.Get(field); v != "" {
			if parsed, ok := parseFilterValue(v, kind); ok {
				lq.clauses = append(lq.clauses, filterClause{field: field, value: parsed})
			}
		}
		for _, op := range filterOps {
			v := q.Get(field + "[" + op.name + "]")
			if v == "" {
				continue
			}
			if parsed, ok := parseFilterValue(v, kind); ok {
				lq.clauses = append(lq.clauses, filterClause{field: field, op: op.mongo, value: parsed})
			}
		}
	}

	lq.keyword = strings.TrimSpace(q.Get("keyword"))

	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			dir := 1
			if strings.HasPrefix(part, "-") {
				dir = -1
				part = part[1:]
			}
			if part != "" {
				lq.sorts = append(lq.sorts, sortField{field: part, dir: dir})
			}
		}
	}

	return lq
}

func parseFilterValue(raw string, kind FieldKind) (any, bool) {
	if kind == FieldNumber {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return raw, true
}

// Scope pins an extra equality predicate onto the plan, used by handlers to
// restrict a listing to one parent (e.g. products of a single brand).
func (lq *ListQuery) Scope(field string, value any) *ListQuery {
	lq.scope = append(lq.scope, filterClause{field: field, value: value})
	return lq
}

// Plan renders the composed query: filters first, keyword search ANDed on
// top, then sort and skip/limit. It does not execute anything.
func (lq *ListQuery) Plan() (bson.M, *options.FindOptions) {
	filter := bson.M{}

	for _, c := range lq.scope {
		filter[c.field] = c.value
	}

	for _, c := range lq.clauses {
		if c.op == "" {
			if sub, ok := filter[c.field].(bson.M); ok {
				sub["$eq"] = c.value
			} else {
				filter[c.field] = c.value
			}
			continue
		}
		sub, ok := filter[c.field].(bson.M)
		if !ok {
			sub = bson.M{}
			// A bare equality on the same field folds into the operator
			// document instead of being clobbered by it.
			if existing, found := filter[c.field]; found {
				sub["$eq"] = existing
			}
			filter[c.field] = sub
		}
		sub[c.op] = c.value
	}

	if lq.keyword != "" && len(lq.spec.Searchable) > 0 {
		ors := make([]bson.M, 0, len(lq.spec.Searchable))
		pattern := regexp.QuoteMeta(lq.keyword)
		for _, f := range lq.spec.Searchable {
			ors = append(ors, bson.M{f: primitive.Regex{Pattern: pattern, Options: "i"}})
		}
		filter["$or"] = ors
	}

	sortDoc := bson.D{}
	for _, s := range lq.sorts {
		sortDoc = append(sortDoc, bson.E{Key: s.field, Value: s.dir})
	}
	if len(sortDoc) == 0 {
		sortDoc = bson.D{{Key: "created_at", Value: -1}}
	}

	opts := options.Find().
		SetSort(sortDoc).
		SetSkip((lq.page - 1) * lq.limit).
		SetLimit(lq.limit)

	return filter, opts
}

// Page and Limit expose the resolved pagination for response metadata.
func (lq *ListQuery) Page() int64  { return lq.page }
func (lq *ListQuery) Limit() int64 { return lq.limit }
