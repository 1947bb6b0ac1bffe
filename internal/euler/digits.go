package euler

import (
	"math/big"
	"strconv"
)

func digitSum(s string) int {
	sum := 0
	for _, r := range s {
		sum += int(r - '0')
	}
	return sum
}

func powerDigitSum() string {
	n := new(big.Int).Lsh(big.NewInt(1), 1000)
	return strconv.Itoa(digitSum(n.String()))
}

func factorialDigitSum() string {
	n := new(big.Int).MulRange(1, 100)
	return strconv.Itoa(digitSum(n.String()))
}

func thousandDigitFibonacci() string {
	a, b := big.NewInt(1), big.NewInt(1)
	index := 2
	for len(b.String()) < 1000 {
		a.Add(a, b)
		a, b = b, a
		index++
	}
	return strconv.Itoa(index)
}

func distinctPowers() string {
	seen := make(map[string]struct{})
	for a := int64(2); a <= 100; a++ {
		base := big.NewInt(a)
		p := new(big.Int).Set(base)
		for b := 2; b <= 100; b++ {
			p.Mul(p, base)
			seen[p.String()] = struct{}{}
		}
	}
	return strconv.Itoa(len(seen))
}

func digitFifthPowers() string {
	var pow [10]int
	for d := range pow {
		pow[d] = d * d * d * d * d
	}
	total := 0
	// 6*9^5 = 354294 bounds any candidate.
	for n := 10; n <= 354294; n++ {
		sum := 0
		for m := n; m > 0; m /= 10 {
			sum += pow[m%10]
		}
		if sum == n {
			total += n
		}
	}
	return strconv.Itoa(total)
}

func digitFactorials() string {
	fact := [10]int{1}
	for d := 1; d < 10; d++ {
		fact[d] = fact[d-1] * d
	}
	total := 0
	// 7*9! = 2540160 bounds any candidate.
	for n := 10; n <= 2540160; n++ {
		sum := 0
		for m := n; m > 0; m /= 10 {
			sum += fact[m%10]
		}
		if sum == n {
			total += n
		}
	}
	return strconv.Itoa(total)
}

func doubleBasePalindromes() string {
	total := 0
	for n := 1; n < 1_000_000; n += 2 {
		if isPalindrome(strconv.Itoa(n)) && isPalindrome(strconv.FormatInt(int64(n), 2)) {
			total += n
		}
	}
	return strconv.Itoa(total)
}

func selfPowers() string {
	mod := big.NewInt(10_000_000_000)
	sum := new(big.Int)
	term := new(big.Int)
	for i := int64(1); i <= 1000; i++ {
		n := big.NewInt(i)
		term.Exp(n, n, mod)
		sum.Add(sum, term)
	}
	sum.Mod(sum, mod)
	return sum.String()
}
