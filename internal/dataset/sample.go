package dataset

import (
	"encoding/csv"
	"strings"
)

// SampleFileName is the name the sample employees file is written under.
const SampleFileName = "sample_data.csv"

// SampleCSV is a small employee roster used by the seed command and tests.
const SampleCSV = `Name,Age,City,Department,Salary,Experience_Years,Rating,Join_Date
Alice,30,New York,Engineering,95000,5,4.5,2021-03-15
Bob,25,Los Angeles,Marketing,65000,2,3.8,2024-06-01
Carol,35,Chicago,Engineering,110000,10,4.9,2016-01-20
David,28,Houston,Sales,72000,3,4.1,2023-04-10
Eve,32,Phoenix,HR,78000,7,4.3,2019-09-05
Frank,40,New York,Engineering,125000,15,4.7,2011-07-22
Grace,27,Chicago,Marketing,68000,3,3.9,2023-08-14
Hank,33,Houston,Sales,85000,8,4.4,2018-02-28
Ivy,29,Los Angeles,HR,71000,4,4.0,2022-11-30
Jack,38,Phoenix,Engineering,115000,12,4.6,2014-05-12
Karen,26,New York,Marketing,62000,1,3.5,2025-01-08
Leo,31,Chicago,Sales,80000,6,4.2,2020-06-17
Mia,34,Houston,HR,82000,9,4.5,2017-10-03
Nick,36,Los Angeles,Engineering,120000,11,4.8,2015-03-25
Olivia,24,Phoenix,Marketing,58000,1,3.6,2025-02-01
Paul,42,New York,Sales,95000,16,4.7,2010-12-15
Quinn,29,Chicago,HR,73000,4,4.1,2022-07-19
Rita,37,Houston,Engineering,118000,13,4.6,2013-04-08
Sam,28,Los Angeles,Marketing,67000,3,3.7,2023-09-22
Tina,33,Phoenix,Sales,88000,8,4.3,2018-01-11
`

// Sample returns SampleCSV parsed into a table.
func Sample() *Table {
	recs, err := csv.NewReader(strings.NewReader(SampleCSV)).ReadAll()
	if err != nil {
		panic(err)
	}
	t, err := FromStrings(recs[0], recs[1:])
	if err != nil {
		panic(err)
	}
	return t
}
