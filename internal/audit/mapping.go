package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

var adminRoutes = map[string]ActionResource{
	"GET /admin":        {Action: "view", Resource: "admin_page"},
	"GET /admin/data":   {Action: "list", Resource: "contact"},
	"GET /admin/quotes": {Action: "list", Resource: "quote"},
	"GET /admin/audit":  {Action: "list", Resource: "audit_log"},
}

// ParseRoute returns action and resource for an admin request (e.g. GET /admin/quotes -> list quote).
// Unknown routes map the method to a verb and the last path segment to the resource.
func ParseRoute(method, path string) ActionResource {
	method = strings.ToUpper(method)
	path = "/" + strings.Trim(path, "/")
	if ar, ok := adminRoutes[method+" "+path]; ok {
		return ar
	}
	resource := "unknown"
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		resource = strings.ToLower(path[i+1:])
	}
	return ActionResource{Action: methodToAction(method), Resource: resource}
}

func methodToAction(method string) string {
	switch method {
	case "GET", "HEAD":
		return "get"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
