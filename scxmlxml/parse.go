// Package scxmlxml parses SCXML 1.0 documents into the engine's
// primitives.MachineConfig document model using go-xmldom for DOM
// traversal. It is the adapter that lets internal/core load a real .scxml
// file instead of a hand-built primitives.MachineBuilder tree.
package scxmlxml

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// Parse decodes an SCXML document and builds a primitives.MachineConfig
// ready for Build/Validate. The top-level <datamodel> (if any) is attached
// to the document's initial top-level state, so its <data> items are bound
// the first time that state is entered under the engine's late-binding
// default (see internal/datamodel).
func Parse(data []byte) (*primitives.MachineConfig, error) {
	decoder := xmldom.NewDecoderFromBytes(data)
	doc, err := decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("scxmlxml: parsing XML: %w", err)
	}

	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("scxmlxml: document has no root element")
	}
	if local := string(root.LocalName()); local != "scxml" {
		return nil, fmt.Errorf("scxmlxml: root element is %q, want scxml", local)
	}

	id := string(root.GetAttribute("name"))
	if id == "" {
		id = "scxml-document"
	}
	initial := string(root.GetAttribute("initial"))

	cfg := &primitives.MachineConfig{
		Version: string(root.GetAttribute("version")),
		ID:      id,
		States:  make(map[string]*primitives.StateConfig),
	}

	var topDatamodel []primitives.DataItem
	var topLevel []*primitives.StateConfig
	for _, child := range elementChildren(root) {
		switch string(child.LocalName()) {
		case "state", "parallel", "final", "history":
			st, err := parseState(child)
			if err != nil {
				return nil, err
			}
			cfg.States[st.ID] = st
			topLevel = append(topLevel, st)
		case "datamodel":
			items, err := parseDatamodel(child)
			if err != nil {
				return nil, err
			}
			topDatamodel = append(topDatamodel, items...)
		}
	}

	if initial == "" && len(topLevel) > 0 {
		initial = topLevel[0].ID
	}
	cfg.Initial = initial

	if len(topDatamodel) > 0 {
		if target, ok := cfg.States[initial]; ok {
			target.Data = append(target.Data, topDatamodel...)
		}
	}

	return cfg, nil
}

// elementChildren returns el's direct element children (go-xmldom's
// Children() already excludes text/comment nodes).
func elementChildren(el xmldom.Element) []xmldom.Element {
	nl := el.Children()
	out := make([]xmldom.Element, 0, nl.Length())
	for i := uint(0); i < nl.Length(); i++ {
		if c := nl.Item(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func firstChild(el xmldom.Element, name string) xmldom.Element {
	for _, c := range elementChildren(el) {
		if string(c.LocalName()) == name {
			return c
		}
	}
	return nil
}

func childrenNamed(el xmldom.Element, name string) []xmldom.Element {
	var out []xmldom.Element
	for _, c := range elementChildren(el) {
		if string(c.LocalName()) == name {
			out = append(out, c)
		}
	}
	return out
}

func parseState(el xmldom.Element) (*primitives.StateConfig, error) {
	id := string(el.GetAttribute("id"))
	if id == "" {
		return nil, fmt.Errorf("scxmlxml: <%s> missing required id attribute", el.LocalName())
	}

	var typ primitives.StateType
	switch string(el.LocalName()) {
	case "final":
		typ = primitives.Final
	case "parallel":
		typ = primitives.Parallel
	case "history":
		if string(el.GetAttribute("type")) == "deep" {
			typ = primitives.DeepHistory
		} else {
			typ = primitives.ShallowHistory
		}
	default: // "state"
		if hasSubstates(el) {
			typ = primitives.Compound
		} else {
			typ = primitives.Atomic
		}
	}

	st := primitives.NewStateConfig(id, typ)

	if typ == primitives.Compound || typ == primitives.Parallel {
		var children []*primitives.StateConfig
		for _, c := range elementChildren(el) {
			switch string(c.LocalName()) {
			case "state", "parallel", "final", "history":
				child, err := parseState(c)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
		}
		st.Children = children
	}

	if typ == primitives.Compound {
		initial := string(el.GetAttribute("initial"))
		if initial == "" {
			if initEl := firstChild(el, "initial"); initEl != nil {
				if t := firstChild(initEl, "transition"); t != nil {
					initial = strings.Fields(string(t.GetAttribute("target")))[0]
				}
			}
		}
		if initial == "" && len(st.Children) > 0 {
			initial = st.Children[0].ID
		}
		st.Initial = initial
	}

	for _, c := range elementChildren(el) {
		switch string(c.LocalName()) {
		case "onentry":
			actions, err := parseExecutableContent(c)
			if err != nil {
				return nil, err
			}
			st.Entry = append(st.Entry, actionRefs(actions)...)
		case "onexit":
			actions, err := parseExecutableContent(c)
			if err != nil {
				return nil, err
			}
			st.Exit = append(st.Exit, actionRefs(actions)...)
		case "transition":
			trans, event, err := parseTransition(c)
			if err != nil {
				return nil, err
			}
			st.AddTransition(event, trans)
		case "datamodel":
			items, err := parseDatamodel(c)
			if err != nil {
				return nil, err
			}
			st.Data = append(st.Data, items...)
		case "invoke":
			inv, err := parseInvoke(c)
			if err != nil {
				return nil, err
			}
			st.Invoke = append(st.Invoke, inv)
		case "donedata":
			dd, err := parseDonedata(c)
			if err != nil {
				return nil, err
			}
			st.Donedata = dd
		}
	}

	return st, nil
}

func hasSubstates(el xmldom.Element) bool {
	for _, c := range elementChildren(el) {
		switch string(c.LocalName()) {
		case "state", "parallel", "final", "history":
			return true
		}
	}
	return false
}

func parseTransition(el xmldom.Element) (primitives.TransitionConfig, string, error) {
	event := string(el.GetAttribute("event"))
	trans := primitives.TransitionConfig{
		Event: event,
		Guard: string(el.GetAttribute("cond")),
	}
	if target := string(el.GetAttribute("target")); target != "" {
		trans.Targets = strings.Fields(target)
	}
	switch string(el.GetAttribute("type")) {
	case "internal":
		trans.Type = primitives.TransitionInternal
	case "external", "":
		trans.Type = primitives.TransitionExternal
	default:
		return trans, event, fmt.Errorf("scxmlxml: invalid transition type %q", el.GetAttribute("type"))
	}

	actions, err := parseExecutableContent(el)
	if err != nil {
		return trans, event, err
	}
	trans.Actions = actionRefs(actions)
	return trans, event, nil
}

// parseExecutableContent parses the executable-content children of el
// (shared by <onentry>, <onexit>, <transition>, <foreach>, and
// <finalize>), skipping any structural children (<datamodel>,
// <transition> when el is a state, etc.) that aren't executable content.
func parseExecutableContent(el xmldom.Element) ([]primitives.Action, error) {
	var out []primitives.Action
	for _, c := range elementChildren(el) {
		act, ok, err := parseExecutableElement(c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, act)
		}
	}
	return out, nil
}

// parseExecutableElement dispatches a single executable-content element.
// ok is false for elements that aren't executable content (e.g. <elseif>/
// <else>, which parseIf handles itself as branch markers).
func parseExecutableElement(c xmldom.Element) (primitives.Action, bool, error) {
	switch string(c.LocalName()) {
	case "raise":
		return primitives.Raise(string(c.GetAttribute("event"))), true, nil
	case "send":
		act, err := parseSend(c)
		return act, err == nil, err
	case "cancel":
		return primitives.Action{
			Kind: primitives.ActionCancel,
			Cancel: &primitives.CancelAction{
				SendID:     string(c.GetAttribute("sendid")),
				SendIDExpr: string(c.GetAttribute("sendidexpr")),
			},
		}, true, nil
	case "assign":
		return primitives.Assign(string(c.GetAttribute("location")), string(c.GetAttribute("expr"))), true, nil
	case "script":
		return primitives.Action{
			Kind:   primitives.ActionScript,
			Script: &primitives.ScriptAction{Body: string(c.TextContent())},
		}, true, nil
	case "log":
		return primitives.Log(string(c.GetAttribute("label")), string(c.GetAttribute("expr"))), true, nil
	case "if":
		act, err := parseIf(c)
		return act, err == nil, err
	case "foreach":
		act, err := parseForeach(c)
		return act, err == nil, err
	default:
		return primitives.Action{}, false, nil
	}
}

func parseSend(el xmldom.Element) (primitives.Action, error) {
	send := &primitives.SendAction{
		Event:       string(el.GetAttribute("event")),
		EventExpr:   string(el.GetAttribute("eventexpr")),
		Target:      string(el.GetAttribute("target")),
		TargetExpr:  string(el.GetAttribute("targetexpr")),
		Type:        string(el.GetAttribute("type")),
		TypeExpr:    string(el.GetAttribute("typeexpr")),
		Delay:       string(el.GetAttribute("delay")),
		DelayExpr:   string(el.GetAttribute("delayexpr")),
		ID:          string(el.GetAttribute("id")),
		IDLocation:  string(el.GetAttribute("idlocation")),
		ContentExpr: "",
	}
	if namelist := string(el.GetAttribute("namelist")); namelist != "" {
		send.Namelist = strings.Fields(namelist)
	}
	for _, p := range childrenNamed(el, "param") {
		send.Params = append(send.Params, primitives.Param{
			Name:     string(p.GetAttribute("name")),
			Expr:     string(p.GetAttribute("expr")),
			Location: string(p.GetAttribute("location")),
		})
	}
	if c := firstChild(el, "content"); c != nil {
		send.ContentExpr = string(c.GetAttribute("expr"))
		if send.ContentExpr == "" {
			send.Content = strings.TrimSpace(string(c.TextContent()))
		}
	}
	return primitives.Action{Kind: primitives.ActionSend, Send: send}, nil
}

// parseIf walks an <if>'s children in document order, starting a new
// IfBranch each time an <elseif>/<else> marker is seen and otherwise
// dispatching each child as ordinary executable content into the current
// branch.
func parseIf(el xmldom.Element) (primitives.Action, error) {
	branches := []primitives.IfBranch{{Cond: string(el.GetAttribute("cond"))}}
	for _, c := range elementChildren(el) {
		switch string(c.LocalName()) {
		case "elseif":
			branches = append(branches, primitives.IfBranch{Cond: string(c.GetAttribute("cond"))})
			continue
		case "else":
			branches = append(branches, primitives.IfBranch{})
			continue
		}
		act, ok, err := parseExecutableElement(c)
		if err != nil {
			return primitives.Action{}, err
		}
		if !ok {
			continue
		}
		last := &branches[len(branches)-1]
		last.Actions = append(last.Actions, act)
	}
	return primitives.Action{Kind: primitives.ActionIf, If: &primitives.IfAction{Branches: branches}}, nil
}

func parseForeach(el xmldom.Element) (primitives.Action, error) {
	body, err := parseExecutableContent(el)
	if err != nil {
		return primitives.Action{}, err
	}
	return primitives.Action{
		Kind: primitives.ActionForeach,
		Foreach: &primitives.ForeachAction{
			Array: string(el.GetAttribute("array")),
			Item:  string(el.GetAttribute("item")),
			Index: string(el.GetAttribute("index")),
			Body:  body,
		},
	}, nil
}

func parseDatamodel(el xmldom.Element) ([]primitives.DataItem, error) {
	var items []primitives.DataItem
	for _, d := range childrenNamed(el, "data") {
		item := primitives.DataItem{
			ID:   string(d.GetAttribute("id")),
			Expr: string(d.GetAttribute("expr")),
			Src:  string(d.GetAttribute("src")),
		}
		if item.Expr == "" && item.Src == "" {
			item.Content = strings.TrimSpace(string(d.TextContent()))
		}
		if item.ID == "" {
			return nil, fmt.Errorf("scxmlxml: <data> missing required id attribute")
		}
		items = append(items, item)
	}
	return items, nil
}

func parseInvoke(el xmldom.Element) (primitives.InvokeSpec, error) {
	spec := primitives.InvokeSpec{
		ID:          string(el.GetAttribute("id")),
		IDLocation:  string(el.GetAttribute("idlocation")),
		Type:        string(el.GetAttribute("type")),
		TypeExpr:    string(el.GetAttribute("typeexpr")),
		Src:         string(el.GetAttribute("src")),
		SrcExpr:     string(el.GetAttribute("srcexpr")),
		Autoforward: string(el.GetAttribute("autoforward")) == "true",
	}
	if spec.Type == "" {
		spec.Type = "scxml"
	}
	if namelist := string(el.GetAttribute("namelist")); namelist != "" {
		spec.Namelist = strings.Fields(namelist)
	}
	for _, p := range childrenNamed(el, "param") {
		spec.Params = append(spec.Params, primitives.Param{
			Name:     string(p.GetAttribute("name")),
			Expr:     string(p.GetAttribute("expr")),
			Location: string(p.GetAttribute("location")),
		})
	}
	if c := firstChild(el, "content"); c != nil {
		spec.ContentExpr = string(c.GetAttribute("expr"))
		if spec.ContentExpr == "" {
			spec.Content = strings.TrimSpace(string(c.TextContent()))
		}
	}
	if f := firstChild(el, "finalize"); f != nil {
		actions, err := parseExecutableContent(f)
		if err != nil {
			return spec, err
		}
		spec.Finalize = actions
	}
	return spec, nil
}

func parseDonedata(el xmldom.Element) (*primitives.DoneData, error) {
	dd := &primitives.DoneData{}
	for _, p := range childrenNamed(el, "param") {
		dd.Params = append(dd.Params, primitives.Param{
			Name:     string(p.GetAttribute("name")),
			Expr:     string(p.GetAttribute("expr")),
			Location: string(p.GetAttribute("location")),
		})
	}
	if c := firstChild(el, "content"); c != nil {
		dd.ContentExpr = string(c.GetAttribute("expr"))
		if dd.ContentExpr == "" {
			dd.Content = strings.TrimSpace(string(c.TextContent()))
		}
	}
	return dd, nil
}

func actionRefs(actions []primitives.Action) []primitives.ActionRef {
	out := make([]primitives.ActionRef, len(actions))
	for i, a := range actions {
		out[i] = a
	}
	return out
}
