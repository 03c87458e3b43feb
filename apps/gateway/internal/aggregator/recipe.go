// Package aggregator はチャネル購読ごとの配信集約を行う。
package aggregator

import (
	"encoding/json"
	"maps"
	"reflect"
	"strconv"
	"strings"
)

// Recipe は集約方式を表す。
type Recipe int

const (
	// PassThrough は集約せずそのまま配信する
	PassThrough Recipe = iota
	// Additive は数値フィールドを加算する
	Additive
	// Diff は前回状態からの差分のみを配信する
	Diff
	// Throttle は最新のペイロードのみを配信する
	Throttle
)

// ParseRecipe は集約方式名をRecipeに変換する。
// 未知の名前や空文字はPassThroughとなる。
func ParseRecipe(name string) Recipe {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "additive":
		return Additive
	case "diff":
		return Diff
	case "throttle":
		return Throttle
	default:
		return PassThrough
	}
}

// String は集約方式名を返す。
func (r Recipe) String() string {
	switch r {
	case Additive:
		return "additive"
	case Diff:
		return "diff"
	case Throttle:
		return "throttle"
	default:
		return "passthrough"
	}
}

// numeric は値を数値として解釈する。解釈できない値は0。
func numeric(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// addInto はincomingの各フィールドをworkingへ加算する。
func addInto(working, incoming map[string]any) {
	for k, v := range incoming {
		working[k] = numeric(working[k]) + numeric(v)
	}
}

// diffAgainst はincomingのうちstateと値が異なるキーのみを返す。
// ネストしたマップは再帰的に比較し、差分のない部分木は除外する。
func diffAgainst(state, incoming map[string]any) map[string]any {
	delta := make(map[string]any)
	for k, v := range incoming {
		prev, ok := state[k]
		if !ok {
			delta[k] = v
			continue
		}
		nv, vIsMap := v.(map[string]any)
		pv, pIsMap := prev.(map[string]any)
		if vIsMap && pIsMap {
			if sub := diffAgainst(pv, nv); len(sub) > 0 {
				delta[k] = sub
			}
			continue
		}
		if !reflect.DeepEqual(prev, v) {
			delta[k] = v
		}
	}
	return delta
}

// mergeInto はsrcをdstへ再帰的にマージする。
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sv, sIsMap := v.(map[string]any)
		dv, dIsMap := dst[k].(map[string]any)
		if sIsMap && dIsMap {
			mergeInto(dv, sv)
			continue
		}
		if sIsMap {
			v = deepCopy(sv)
		}
		dst[k] = v
	}
}

func deepCopy(m map[string]any) map[string]any {
	out := maps.Clone(m)
	for k, v := range out {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopy(sub)
		}
	}
	return out
}
