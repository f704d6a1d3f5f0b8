package root

import (
	"github.com/storelens-ai/storelens/apps/cli/cmd/entitlement"
	"github.com/storelens-ai/storelens/apps/cli/cmd/migrate"
	"github.com/storelens-ai/storelens/apps/cli/cmd/tenant"
	"github.com/storelens-ai/storelens/apps/cli/cmd/usage"
)

func init() {
	Root().AddCommand(usage.Command())
	Root().AddCommand(entitlement.Command())
	Root().AddCommand(tenant.Command())
	Root().AddCommand(migrate.Command())
}
