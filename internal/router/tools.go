package router

import (
	"github.com/cloudwego/eino/schema"

	"github.com/leapstack-labs/leapask/internal/analysis"
)

// ToolInfos converts function descriptors to model tools.
func ToolInfos(descs []analysis.Descriptor) []*schema.ToolInfo {
	tools := make([]*schema.ToolInfo, 0, len(descs))
	for _, d := range descs {
		info := &schema.ToolInfo{Name: d.Name, Desc: d.Description}
		if len(d.Params) == 0 {
			tools = append(tools, info)
			continue
		}
		params := make(map[string]*schema.ParameterInfo, len(d.Params))
		for _, p := range d.Params {
			params[p.Name] = &schema.ParameterInfo{
				Type:     dataType(p.Type),
				Desc:     p.Description,
				Required: p.Required,
			}
		}
		info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
		tools = append(tools, info)
	}
	return tools
}

func dataType(t string) schema.DataType {
	switch t {
	case "number":
		return schema.Number
	case "integer":
		return schema.Integer
	case "boolean":
		return schema.Boolean
	default:
		return schema.String
	}
}
