package primitives

// InvokeSpec is a <invoke> element attached to a state. The invoke manager
// materialises one child Session per InvokeSpec per state entry.
type InvokeSpec struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	IDLocation  string   `json:"idLocation,omitempty" yaml:"idLocation,omitempty"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	TypeExpr    string   `json:"typeExpr,omitempty" yaml:"typeExpr,omitempty"`
	Src         string   `json:"src,omitempty" yaml:"src,omitempty"`
	SrcExpr     string   `json:"srcExpr,omitempty" yaml:"srcExpr,omitempty"`
	Content     string   `json:"content,omitempty" yaml:"content,omitempty"`
	ContentExpr string   `json:"contentExpr,omitempty" yaml:"contentExpr,omitempty"`
	Namelist    []string `json:"namelist,omitempty" yaml:"namelist,omitempty"`
	Params      []Param  `json:"params,omitempty" yaml:"params,omitempty"`
	Autoforward bool     `json:"autoforward,omitempty" yaml:"autoforward,omitempty"`
	Finalize    []Action `json:"finalize,omitempty" yaml:"finalize,omitempty"`
}

// DataItem is a <data id="..." expr="..."/> (or src=, or inline content)
// entry in a <datamodel> block.
type DataItem struct {
	ID      string `json:"id" yaml:"id"`
	Expr    string `json:"expr,omitempty" yaml:"expr,omitempty"`
	Src     string `json:"src,omitempty" yaml:"src,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}
