package shape

// File is one declaration-shape input file.
type File struct {
	Package    string     `yaml:"package" validate:"required,qualified"`
	Classes    []Class    `yaml:"classes" validate:"dive"`
	Functions  []Function `yaml:"functions" validate:"dive"`
	Properties []Property `yaml:"properties" validate:"dive"`

	// Path is where the file was read from; empty for in-memory input.
	Path string `yaml:"-"`
}

// CompanionName names a companion object declared without a name.
const CompanionName = "Companion"

// Class describes a class, interface, object, enum or annotation class.
// A companion may omit its name; normalization fills in CompanionName.
type Class struct {
	Name           string          `yaml:"name" validate:"required,ident"`
	Kind           string          `yaml:"kind" validate:"omitempty,oneof=class interface object enum annotation"`
	Modality       string          `yaml:"modality" validate:"omitempty,oneof=final sealed open abstract"`
	Visibility     string          `yaml:"visibility" validate:"omitempty,oneof=public protected internal private"`
	Inner          bool            `yaml:"inner"`
	TypeParameters []TypeParameter `yaml:"typeParameters" validate:"dive"`
	Supertypes     []string        `yaml:"supertypes" validate:"dive,typeref"`
	Constructor    *Constructor    `yaml:"constructor"`
	Constructors   []Constructor   `yaml:"constructors" validate:"dive"`
	Functions      []Function      `yaml:"functions" validate:"dive"`
	Properties     []Property      `yaml:"properties" validate:"dive"`
	Entries        []EnumEntry     `yaml:"entries" validate:"dive"`
	Nested         []Class         `yaml:"nested" validate:"dive"`
	Companion      *Class          `yaml:"companion"`
	Annotations    []string        `yaml:"annotations" validate:"dive,ident"`
}

// EnumEntry is one entry of an enum class.
type EnumEntry struct {
	Name        string   `yaml:"name" validate:"required,ident"`
	Annotations []string `yaml:"annotations" validate:"dive,ident"`
}

// TypeParameter declares a type parameter and its upper bounds.
type TypeParameter struct {
	Name     string   `yaml:"name" validate:"required,ident"`
	Variance string   `yaml:"variance" validate:"omitempty,oneof=in out"`
	Reified  bool     `yaml:"reified"`
	Bounds   []string `yaml:"bounds" validate:"dive,typeref"`
}

// Constructor describes a primary or secondary constructor.
type Constructor struct {
	Visibility  string      `yaml:"visibility" validate:"omitempty,oneof=public protected internal private"`
	Parameters  []Parameter `yaml:"parameters" validate:"dive"`
	Annotations []string    `yaml:"annotations" validate:"dive,ident"`
}

// Parameter is a value parameter.
type Parameter struct {
	Name        string `yaml:"name" validate:"required,ident"`
	Type        string `yaml:"type" validate:"required,typeref"`
	Default     bool   `yaml:"default"`
	Vararg      bool   `yaml:"vararg"`
	Crossinline bool   `yaml:"crossinline"`
	Noinline    bool   `yaml:"noinline"`
}

// Function describes a member or top-level function. An empty Returns
// means Unit.
type Function struct {
	Name           string          `yaml:"name" validate:"required,ident"`
	Modality       string          `yaml:"modality" validate:"omitempty,oneof=final open abstract"`
	Visibility     string          `yaml:"visibility" validate:"omitempty,oneof=public protected internal private"`
	Override       bool            `yaml:"override"`
	TypeParameters []TypeParameter `yaml:"typeParameters" validate:"dive"`
	Receiver       string          `yaml:"receiver" validate:"omitempty,typeref"`
	Context        []string        `yaml:"context" validate:"dive,typeref"`
	Parameters     []Parameter     `yaml:"parameters" validate:"dive"`
	Returns        string          `yaml:"returns" validate:"omitempty,typeref"`
	Operator       bool            `yaml:"operator"`
	Infix          bool            `yaml:"infix"`
	Inline         bool            `yaml:"inline"`
	External       bool            `yaml:"external"`
	Tailrec        bool            `yaml:"tailrec"`
	Suspend        bool            `yaml:"suspend"`
	Annotations    []string        `yaml:"annotations" validate:"dive,ident"`
}

// Property describes a val or var.
type Property struct {
	Name           string          `yaml:"name" validate:"required,ident"`
	Type           string          `yaml:"type" validate:"required,typeref"`
	Var            bool            `yaml:"var"`
	Const          bool            `yaml:"const"`
	Lateinit       bool            `yaml:"lateinit"`
	Modality       string          `yaml:"modality" validate:"omitempty,oneof=final open abstract"`
	Visibility     string          `yaml:"visibility" validate:"omitempty,oneof=public protected internal private"`
	Override       bool            `yaml:"override"`
	TypeParameters []TypeParameter `yaml:"typeParameters" validate:"dive"`
	Receiver       string          `yaml:"receiver" validate:"omitempty,typeref"`
	Getter         *Accessor       `yaml:"getter"`
	Setter         *Accessor       `yaml:"setter"`
	Annotations    []string        `yaml:"annotations" validate:"dive,ident"`
}

// Accessor carries the modifiers written on a getter or setter. A nil
// accessor is a default one.
type Accessor struct {
	Visibility string `yaml:"visibility" validate:"omitempty,oneof=public protected internal private"`
	External   bool   `yaml:"external"`
	Inline     bool   `yaml:"inline"`
	Body       bool   `yaml:"body"`
}
