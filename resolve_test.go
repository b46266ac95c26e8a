package rebate_test

import (
	"testing"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

func TestResolve(t *testing.T) {
	synced := &talent.Talent{
		OneID:    "talent-1",
		Platform: "douyin",
		AgencyID: "agency-01",
		CurrentRebate: &talent.CurrentRebate{
			Rate:   types.Percent(8),
			Source: talent.SourceAgency,
		},
	}
	personal := &talent.Talent{
		OneID:    "talent-2",
		Platform: "douyin",
		CurrentRebate: &talent.CurrentRebate{
			Rate:   types.Percent(5),
			Source: talent.SourcePersonal,
		},
	}

	tests := []struct {
		name     string
		talent   *talent.Talent
		override *relation.CustomerRebate
		want     rebate.Resolved
	}{
		{
			name:     "enabled override wins over everything",
			talent:   synced,
			override: &relation.CustomerRebate{Enabled: true, Rate: types.Percent(12)},
			want:     rebate.Resolved{Rate: types.Percent(12), Source: talent.SourceCustomer},
		},
		{
			name:     "disabled override is ignored",
			talent:   synced,
			override: &relation.CustomerRebate{Enabled: false, Rate: types.Percent(12)},
			want:     rebate.Resolved{Rate: types.Percent(8), Source: talent.SourceAgency},
		},
		{
			name:   "talent rate keeps its own source",
			talent: personal,
			want:   rebate.Resolved{Rate: types.Percent(5), Source: talent.SourcePersonal},
		},
		{
			name:   "talent without a rate falls back to zero",
			talent: &talent.Talent{OneID: "talent-3", Platform: "douyin"},
			want:   rebate.Resolved{Rate: 0, Source: talent.SourceDefault},
		},
		{
			name: "nil talent falls back to zero",
			want: rebate.Resolved{Rate: 0, Source: talent.SourceDefault},
		},
		{
			name:     "enabled override needs no talent",
			override: &relation.CustomerRebate{Enabled: true, Rate: types.Percent(3)},
			want:     rebate.Resolved{Rate: types.Percent(3), Source: talent.SourceCustomer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rebate.Resolve(tt.talent, tt.override)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
