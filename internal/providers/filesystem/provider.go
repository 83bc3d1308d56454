package filesystem

import (
	"context"
	"fmt"

	"github.com/wardenfs/warden/internal/logging"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// Provider implements sandboxed filesystem operations
type Provider struct {
	ops        *FilesystemOps
	basic      *BasicOps
	directory  *DirectoryOps
	operations *OperationsOps
	search     *SearchOps
	metadata   *MetadataOps
	formats    *FormatsOps
	archives   *ArchivesOps
}

// New creates a filesystem provider backed by a sandbox gate
func New(gate *sandbox.Gate, log *logging.Logger, maxReadBytes int64) *Provider {
	ops := &FilesystemOps{
		Gate:         gate,
		Log:          log,
		MaxReadBytes: maxReadBytes,
	}

	return &Provider{
		ops:        ops,
		basic:      &BasicOps{ops},
		directory:  &DirectoryOps{ops},
		operations: &OperationsOps{ops},
		search:     &SearchOps{ops},
		metadata:   &MetadataOps{ops},
		formats:    &FormatsOps{ops},
		archives:   &ArchivesOps{ops},
	}
}

// ObserveDecisions registers a hook receiving every gate decision made by
// this provider, keyed by access mode and outcome.
func (p *Provider) ObserveDecisions(fn func(mode, outcome string)) {
	p.ops.OnDecision = fn
}

// Definition returns service metadata with all tools
func (p *Provider) Definition() types.Service {
	tools := []types.Tool{
		{
			ID:          "fs.roots",
			Name:        "Allowed Roots",
			Description: "List the directories this service may access",
			Parameters:  []types.Parameter{},
			Returns:     "array",
		},
	}
	tools = append(tools, p.basic.GetTools()...)
	tools = append(tools, p.directory.GetTools()...)
	tools = append(tools, p.operations.GetTools()...)
	tools = append(tools, p.search.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)
	tools = append(tools, p.formats.GetTools()...)
	tools = append(tools, p.archives.GetTools()...)

	return types.Service{
		ID:          "fs",
		Name:        "Filesystem Service",
		Description: "File and directory operations confined to allowed roots",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"write",
			"edit",
			"list",
			"move",
			"search",
			"stat",
			"formats",
			"archives",
		},
		Tools: tools,
	}
}

// Execute runs a filesystem operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	switch toolID {
	case "fs.roots":
		return p.roots()
	case "fs.read":
		return p.basic.Read(ctx, params)
	case "fs.read_batch":
		return p.basic.ReadBatch(ctx, params)
	case "fs.write":
		return p.basic.Write(ctx, params)
	case "fs.edit":
		return p.basic.Edit(ctx, params)
	case "fs.mkdir":
		return p.directory.Mkdir(ctx, params)
	case "fs.list":
		return p.directory.List(ctx, params)
	case "fs.walk":
		return p.directory.Walk(ctx, params)
	case "fs.tree":
		return p.directory.Tree(ctx, params)
	case "fs.move":
		return p.operations.Move(ctx, params)
	case "fs.copy":
		return p.operations.Copy(ctx, params)
	case "fs.search":
		return p.search.Search(ctx, params)
	case "fs.find":
		return p.search.Find(ctx, params)
	case "fs.grep":
		return p.search.Grep(ctx, params)
	case "fs.stat":
		return p.metadata.Stat(ctx, params)
	case "fs.du":
		return p.metadata.Du(ctx, params)
	case "fs.mime":
		return p.metadata.MIMEType(ctx, params)
	case "fs.json.read":
		return p.formats.JSONRead(ctx, params)
	case "fs.json.write":
		return p.formats.JSONWrite(ctx, params)
	case "fs.yaml.read":
		return p.formats.YAMLRead(ctx, params)
	case "fs.yaml.write":
		return p.formats.YAMLWrite(ctx, params)
	case "fs.toml.read":
		return p.formats.TOMLRead(ctx, params)
	case "fs.toml.write":
		return p.formats.TOMLWrite(ctx, params)
	case "fs.csv.read":
		return p.formats.CSVRead(ctx, params)
	case "fs.archive":
		return p.archives.Archive(ctx, params)
	case "fs.extract":
		return p.archives.Extract(ctx, params)
	case "fs.archive.list":
		return p.archives.List(ctx, params)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

// roots reports the gate's allowed directories
func (p *Provider) roots() (*types.Result, error) {
	roots := p.ops.Gate.Roots()
	paths := make([]interface{}, len(roots))
	for i, r := range roots {
		paths[i] = string(r)
	}
	return Success(map[string]interface{}{"roots": paths, "count": len(paths)})
}
