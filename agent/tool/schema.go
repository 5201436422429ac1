package tool

import (
	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

var einoTypes = map[ParamType]schema.DataType{
	TypeString:  schema.String,
	TypeInteger: schema.Integer,
	TypeNumber:  schema.Number,
	TypeArray:   schema.Array,
}

// ToolInfos describes the tools for a tool-calling chat model.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.specs))
	for _, s := range r.specs {
		params := make(map[string]*schema.ParameterInfo, len(s.Params))
		for _, p := range s.Params {
			info := &schema.ParameterInfo{
				Type:     einoTypes[p.Type],
				Desc:     p.Desc,
				Required: p.Required,
				Enum:     p.Enum,
			}
			if p.Type == TypeArray {
				info.ElemInfo = &schema.ParameterInfo{Type: einoTypes[p.Items]}
			}
			params[p.Name] = info
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        s.Name,
			Desc:        s.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

// Definition is the externally advertised shape of one tool.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  *openapi3.Schema `json:"parameters"`
}

// JSONSchemas renders every tool's parameters as a JSON schema object,
// including anyOf groups that the chat model schema cannot express.
func (r *Registry) JSONSchemas() []Definition {
	defs := make([]Definition, 0, len(r.specs))
	for _, s := range r.specs {
		defs = append(defs, Definition{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.jsonSchema(),
		})
	}
	return defs
}

func (s Spec) jsonSchema() *openapi3.Schema {
	obj := &openapi3.Schema{
		Type:       openapi3.TypeObject,
		Properties: make(openapi3.Schemas, len(s.Params)),
		Required:   []string{},
	}
	for _, p := range s.Params {
		prop := &openapi3.Schema{
			Type:        string(p.Type),
			Description: p.Desc,
			Min:         p.Minimum,
			Max:         p.Maximum,
			Default:     p.Default,
		}
		for _, e := range p.Enum {
			prop.Enum = append(prop.Enum, e)
		}
		if p.Type == TypeArray {
			prop.Items = openapi3.NewSchemaRef("", &openapi3.Schema{Type: string(p.Items)})
		}
		obj.Properties[p.Name] = openapi3.NewSchemaRef("", prop)
		if p.Required {
			obj.Required = append(obj.Required, p.Name)
		}
	}
	for _, group := range s.AnyOf {
		obj.AnyOf = append(obj.AnyOf, openapi3.NewSchemaRef("", &openapi3.Schema{Required: group}))
	}
	return obj
}
