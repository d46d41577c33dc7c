package templexp_test

import (
	"fmt"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/templexp"
)

// Example_shellExpansion 演示 Shell 参数展开。
func Example_shellExpansion() {
	exp := templexp.New(map[string]string{"API_KEY": "sk-12345"})

	result, _ := exp.Expand(`key=${API_KEY}`)
	fmt.Println(result)

	// Output:
	// key=sk-12345
}

// Example_shellFallback 演示默认值回退语义。
func Example_shellFallback() {
	result, _ := templexp.New(nil).Expand(`host=${HOST:-localhost}`)
	fmt.Println(result)

	// Output:
	// host=localhost
}

// Example_shellAssign 演示 := 赋值仅在当前 Expander 内生效。
func Example_shellAssign() {
	result, _ := templexp.New(nil).Expand(`${MODEL:=gpt-4}-${MODEL}`)
	fmt.Println(result)

	// Output:
	// gpt-4-gpt-4
}
