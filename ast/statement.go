package ast

import "github.com/sqlxform/sqlxform/token"

// Statement is implemented by every top-level (or subquery-nested)
// statement variant. AST nodes are immutable once returned from the
// parser: transformers build new nodes rather than mutating in place,
// and sharing subtrees between an input and its transformed output is
// safe as a result.
type Statement interface {
	Node
	statementNode()
}

type statementBase struct {
	base
	bindings *Bindings
}

func (statementBase) statementNode() {}

// Bindings returns the parameter bindings attached to this statement,
// or nil if none were ever attached.
func (s *statementBase) Bindings() *Bindings { return s.bindings }

// SetBindings replaces the statement's parameter bindings.
func (s *statementBase) SetBindings(b *Bindings) { s.bindings = b }

// SimpleSelect is a single (non set-operator-combined) SELECT statement.
type SimpleSelect struct {
	statementBase
	With     *WithClause
	Select   *SelectClause
	From     *FromClause
	Where    *WhereClause
	GroupBy  *GroupByClause
	Having   *HavingClause
	Window   *WindowClause
	OrderBy  *OrderByClause
	Limit    *LimitClause
	ForUpdate *ForUpdateClause
}

func (*SimpleSelect) Type() NodeType { return NodeSimpleSelect }

// NewSimpleSelect returns an empty SimpleSelect with its span/comments
// stamped; the parser fills in the clause fields as it parses them.
func NewSimpleSelect(span token.Span, comments []token.AttachedComment) *SimpleSelect {
	return &SimpleSelect{statementBase: NewStatementBase(span, comments)}
}

// LockStrength enumerates the FOR UPDATE/SHARE row-locking strengths.
type LockStrength int

const (
	LockUpdate LockStrength = iota
	LockNoKeyUpdate
	LockShare
	LockKeyShare
)

// ForUpdateClause is the trailing "FOR UPDATE [OF t1,t2] [NOWAIT|SKIP LOCKED]"
// row-locking clause.
type ForUpdateClause struct {
	Strength   LockStrength
	OfTables   []string
	NoWait     bool
	SkipLocked bool
}

// SetOperator enumerates the six set-combination operators the parser's
// precedence climb recognizes.
type SetOperator int

const (
	SetUnion SetOperator = iota
	SetUnionAll
	SetIntersect
	SetIntersectAll
	SetExcept
	SetExceptAll
)

func (op SetOperator) String() string {
	switch op {
	case SetUnion:
		return "UNION"
	case SetUnionAll:
		return "UNION ALL"
	case SetIntersect:
		return "INTERSECT"
	case SetIntersectAll:
		return "INTERSECT ALL"
	case SetExcept:
		return "EXCEPT"
	case SetExceptAll:
		return "EXCEPT ALL"
	default:
		return "UNKNOWN"
	}
}

// BinarySelect is a set-operator combination of two query bodies. The
// tree is left-leaning by construction: parsing "a UNION b EXCEPT c"
// produces BinarySelect(EXCEPT, BinarySelect(UNION, a, b), c).
type BinarySelect struct {
	statementBase
	Left     Statement
	Operator SetOperator
	Right    Statement
	OrderBy  *OrderByClause // trailing ORDER BY/LIMIT bind to the whole set operation
	Limit    *LimitClause
}

func (*BinarySelect) Type() NodeType { return NodeBinarySelect }

func NewBinarySelect(span token.Span, comments []token.AttachedComment, left Statement, op SetOperator, right Statement) *BinarySelect {
	return &BinarySelect{statementBase: NewStatementBase(span, comments), Left: left, Operator: op, Right: right}
}

// ValuesQuery is a top-level "VALUES (...), (...)" statement.
type ValuesQuery struct {
	statementBase
	Rows    [][]Expr
	OrderBy *OrderByClause
	Limit   *LimitClause
}

func (*ValuesQuery) Type() NodeType { return NodeValuesQuery }

func NewValuesQuery(span token.Span, comments []token.AttachedComment, rows [][]Expr) *ValuesQuery {
	return &ValuesQuery{statementBase: NewStatementBase(span, comments), Rows: rows}
}

// ConflictAction enumerates ON CONFLICT DO NOTHING / DO UPDATE.
type ConflictAction int

const (
	ConflictDoNothing ConflictAction = iota
	ConflictDoUpdate
)

// OnConflict models INSERT ... ON CONFLICT [target] DO NOTHING|UPDATE SET ...
type OnConflict struct {
	TargetColumns   []string // conflict_target column list form
	TargetConstraint string  // ON CONSTRAINT name form
	Action          ConflictAction
	SetItems        []SetItem     // populated for ConflictDoUpdate
	Where           Expr          // optional DO UPDATE ... WHERE predicate
}

// ReturningClause is the trailing RETURNING projection shared by
// INSERT/UPDATE/DELETE/MERGE.
type ReturningClause struct {
	Items []SelectItem
}

// Insert is an INSERT statement. Exactly one of ValuesRows / Select is
// populated depending on whether VALUES or a SELECT supplies the rows.
type Insert struct {
	statementBase
	With       *WithClause
	Table      *BaseTableRef
	Columns    []string
	ValuesRows [][]Expr
	Select     Statement
	OnConflict *OnConflict
	Returning  *ReturningClause
}

func (*Insert) Type() NodeType { return NodeInsert }

func NewInsert(span token.Span, comments []token.AttachedComment, table *BaseTableRef) *Insert {
	return &Insert{statementBase: NewStatementBase(span, comments), Table: table}
}

// SetItem is one "column = value" assignment in an UPDATE SET list.
type SetItem struct {
	Column string
	Value  Expr
}

// Update is an UPDATE statement, including the PostgreSQL UPDATE ... FROM
// extension.
type Update struct {
	statementBase
	With      *WithClause
	Table     *BaseTableRef
	SetItems  []SetItem
	From      *FromClause
	Where     *WhereClause
	Returning *ReturningClause
}

func (*Update) Type() NodeType { return NodeUpdate }

func NewUpdate(span token.Span, comments []token.AttachedComment, table *BaseTableRef) *Update {
	return &Update{statementBase: NewStatementBase(span, comments), Table: table}
}

// Delete is a DELETE statement, including the PostgreSQL DELETE ... USING
// extension.
type Delete struct {
	statementBase
	With      *WithClause
	Table     *BaseTableRef
	Using     *FromClause
	Where     *WhereClause
	Returning *ReturningClause
}

func (*Delete) Type() NodeType { return NodeDelete }

func NewDelete(span token.Span, comments []token.AttachedComment, table *BaseTableRef) *Delete {
	return &Delete{statementBase: NewStatementBase(span, comments), Table: table}
}

// MergeMatchKind distinguishes a MERGE action's match condition.
type MergeMatchKind int

const (
	MergeMatched MergeMatchKind = iota
	MergeNotMatched
	MergeNotMatchedBySource
)

// MergeActionKind is what a matched/not-matched branch does.
type MergeActionKind int

const (
	MergeActionUpdate MergeActionKind = iota
	MergeActionDelete
	MergeActionInsert
	MergeActionDoNothing
)

// MergeAction is one WHEN [NOT] MATCHED [AND cond] THEN action branch.
type MergeAction struct {
	MatchKind MergeMatchKind
	Condition Expr // optional AND <condition>
	Action    MergeActionKind
	SetItems  []SetItem // for MergeActionUpdate
	Columns   []string  // for MergeActionInsert
	Values    []Expr    // for MergeActionInsert
}

// Merge is a MERGE statement.
type Merge struct {
	statementBase
	Target  *BaseTableRef
	Using   FromItem
	On      Expr
	Actions []MergeAction
}

func (*Merge) Type() NodeType { return NodeMerge }

func NewMerge(span token.Span, comments []token.AttachedComment, target *BaseTableRef, using FromItem, on Expr) *Merge {
	return &Merge{statementBase: NewStatementBase(span, comments), Target: target, Using: using, On: on}
}

// ExplainMode distinguishes EXPLAIN from EXPLAIN ANALYZE.
type ExplainMode int

const (
	ExplainPlan ExplainMode = iota
	ExplainAnalyze
)

// Explain wraps another statement; it is a thin passthrough node so
// transformers that only care about the wrapped statement can Unwrap().
type Explain struct {
	statementBase
	Mode    ExplainMode
	Verbose bool
	Format  string // e.g. "JSON", "" for default text
	Stmt    Statement
}

func (*Explain) Type() NodeType { return NodeExplain }

// Unwrap returns the statement EXPLAIN wraps, for callers that want to
// operate on it directly.
func (e *Explain) Unwrap() Statement { return e.Stmt }

func NewExplain(span token.Span, comments []token.AttachedComment, mode ExplainMode, verbose bool, format string, stmt Statement) *Explain {
	return &Explain{statementBase: NewStatementBase(span, comments), Mode: mode, Verbose: verbose, Format: format, Stmt: stmt}
}

// Truncate is a minimal TRUNCATE [TABLE] t1, t2 [RESTART IDENTITY] [CASCADE].
type Truncate struct {
	statementBase
	Tables         []string
	RestartIdentity bool
	Cascade        bool
}

func (*Truncate) Type() NodeType { return NodeTruncate }

func NewTruncate(span token.Span, comments []token.AttachedComment, tables []string, restart, cascade bool) *Truncate {
	return &Truncate{statementBase: NewStatementBase(span, comments), Tables: tables, RestartIdentity: restart, Cascade: cascade}
}

// NewStatementBase lets the statement constructors in this file stamp
// span/comments without exposing the base struct's fields.
func NewStatementBase(span token.Span, comments []token.AttachedComment) statementBase {
	return statementBase{base: newBase(span, comments)}
}
